package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/async"
)

type reminderResponse struct {
	ID        string     `json:"id"`
	ContactID string     `json:"contact_id,omitempty"`
	Title     string     `json:"title"`
	Note      string     `json:"note,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Status    string     `json:"status"`
	Channel   string     `json:"channel"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toReminderResponse(r *model.Reminder) reminderResponse {
	return reminderResponse{
		ID:        r.ID.String(),
		ContactID: r.ContactID,
		Title:     r.Title,
		Note:      r.Note,
		DueAt:     r.DueAt,
		Status:    r.Status.String(),
		Channel:   r.Channel.String(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// requireUser returns the authenticated user or answers 401
func requireUser(w http.ResponseWriter, r *http.Request) (types.UserID, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		handleError(w, r, goerr.Wrap(usecase.ErrUnauthenticated, "no user in request context"))
		return "", false
	}
	return user, true
}

func createReminderHandler(uc *usecase.ReminderUseCase) http.HandlerFunc {
	type request struct {
		Title     string     `json:"title"`
		Note      string     `json:"note"`
		ContactID string     `json:"contact_id"`
		DueAt     *time.Time `json:"due_at"`
		Channel   string     `json:"channel"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req request
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		channel, err := types.ParseReminderChannel(req.Channel)
		if err != nil {
			handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "channel must be in_app or slack"))
			return
		}

		created, err := uc.CreateReminder(r.Context(), user, usecase.CreateReminderInput{
			Title:     req.Title,
			Note:      req.Note,
			ContactID: req.ContactID,
			DueAt:     req.DueAt,
			Channel:   channel,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toReminderResponse(created))
	}
}

func listRemindersHandler(uc *usecase.ReminderUseCase) http.HandlerFunc {
	type response struct {
		Reminders []reminderResponse `json:"reminders"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		reminders, err := uc.ListReminders(r.Context(), user)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := response{Reminders: make([]reminderResponse, len(reminders))}
		for i, rem := range reminders {
			resp.Reminders[i] = toReminderResponse(rem)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func getReminderHandler(uc *usecase.ReminderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		reminder, err := uc.GetReminder(r.Context(), user, model.ReminderID(chi.URLParam(r, "id")))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toReminderResponse(reminder))
	}
}

func updateReminderStatusHandler(uc *usecase.ReminderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		updated, err := uc.UpdateStatus(r.Context(), user, model.ReminderID(chi.URLParam(r, "id")), types.ReminderStatus(req.Status))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toReminderResponse(updated))
	}
}

// triggerScanHandler starts one reminder scan in the background for schedulers that
// can only make HTTP calls. A scan already in progress makes the triggered one a no-op.
func triggerScanHandler(uc *usecase.ScannerUseCase) http.HandlerFunc {
	type response struct {
		Accepted bool `json:"accepted"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		async.Dispatch(r.Context(), func(ctx context.Context) error {
			_, err := uc.Scan(ctx, usecase.ScanOption{})
			if errors.Is(err, usecase.ErrScanInProgress) {
				return nil
			}
			return err
		})
		writeJSON(r.Context(), w, http.StatusAccepted, response{Accepted: true})
	}
}
