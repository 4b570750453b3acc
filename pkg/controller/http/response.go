package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/errutil"
	"github.com/secmon-lab/contactbook/pkg/utils/safe"
)

const maxRequestBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes data as a JSON response
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, append(body, '\n'))
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(r.Context(), w, statusCode, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed request body", goerr.V("reason", err.Error()))
	}
	return nil
}

// handleError maps use case errors to HTTP statuses. Only the messages of client
// errors reach the client.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrQueryTooShort):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest, clientMessage(err))

	case errors.Is(err, usecase.ErrKnowledgeNotFound),
		errors.Is(err, usecase.ErrReminderNotFound),
		errors.Is(err, usecase.ErrNotificationNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound, clientMessage(err))

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrScanInProgress):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict, clientMessage(err))

	case errors.Is(err, usecase.ErrUnauthenticated):
		errutil.HandleHTTP(ctx, w, err, http.StatusUnauthorized, "")

	case errors.Is(err, usecase.ErrAccessDenied):
		errutil.HandleHTTP(ctx, w, err, http.StatusForbidden, "")

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError, "")
	}
}

// clientMessage is the text of a client error. Use case errors of these kinds carry
// no internal detail.
func clientMessage(err error) string {
	return err.Error()
}
