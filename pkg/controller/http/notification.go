package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type notificationResponse struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Body        string         `json:"body,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	ContactID   string         `json:"contact_id,omitempty"`
	ReminderID  string         `json:"reminder_id,omitempty"`
	Status      string         `json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toNotificationResponse(n *model.UserNotification) notificationResponse {
	return notificationResponse{
		ID:          n.ID.String(),
		Type:        n.Type.String(),
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		ContactID:   n.ContactID,
		ReminderID:  n.ReminderID.String(),
		Status:      n.Status.String(),
		ScheduledAt: n.ScheduledAt,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func listNotificationsHandler(uc *usecase.NotificationUseCase) http.HandlerFunc {
	type response struct {
		Notifications []notificationResponse `json:"notifications"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			var err error
			limit, err = strconv.Atoi(s)
			if err != nil || limit < 1 {
				handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "limit must be a positive integer"))
				return
			}
		}

		list, err := uc.List(r.Context(), user, limit)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := response{Notifications: make([]notificationResponse, len(list))}
		for i, n := range list {
			resp.Notifications[i] = toNotificationResponse(n)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func unreadCountHandler(uc *usecase.NotificationUseCase) http.HandlerFunc {
	type response struct {
		Count int `json:"count"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		count, err := uc.UnreadCount(r.Context(), user)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Count: count})
	}
}

func updateNotificationStatusHandler(uc *usecase.NotificationUseCase) http.HandlerFunc {
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

		id := model.NotificationID(chi.URLParam(r, "id"))
		updated, err := uc.UpdateStatus(r.Context(), user, id, types.NotificationStatus(req.Status))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toNotificationResponse(updated))
	}
}
