package http

import (
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/errutil"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

type askRequest struct {
	Question string `json:"question"`
	Platform string `json:"platform"`
	Locale   string `json:"locale"`
}

func (req askRequest) toQuestion() (model.Question, error) {
	platform, err := types.ParseClientPlatform(req.Platform)
	if err != nil {
		return model.Question{}, goerr.Wrap(usecase.ErrInvalidInput, "platform must be web or mobile")
	}
	locale, err := types.ParseLocale(req.Locale)
	if err != nil {
		return model.Question{}, goerr.Wrap(usecase.ErrInvalidInput, "locale must be vi or en")
	}
	return model.Question{Text: req.Question, Platform: platform, Locale: locale}, nil
}

func readQuestion(w http.ResponseWriter, r *http.Request) (model.Question, error) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return model.Question{}, err
	}
	return req.toQuestion()
}

// handleGenerationFailure answers 502 with the fixed user message. The cause is
// only logged.
func handleGenerationFailure(w http.ResponseWriter, r *http.Request, err error, locale types.Locale) {
	errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway, usecase.GenerationFailedMessage(locale))
}

func askHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := readQuestion(w, r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		answer, err := uc.Resolve(r.Context(), q)
		if err != nil {
			if errors.Is(err, usecase.ErrGenerationFailed) {
				handleGenerationFailure(w, r, err, q.Locale)
				return
			}
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toAnswerResponse(answer))
	}
}

func askStreamHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := readQuestion(w, r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		emitter := newSSEEmitter(w)
		err = uc.Stream(r.Context(), q, emitter)
		if err == nil {
			return
		}

		if !emitter.Started() {
			// Nothing was sent, so a normal error response is still possible
			if errors.Is(err, usecase.ErrGenerationFailed) {
				handleGenerationFailure(w, r, err, q.Locale)
				return
			}
			handleError(w, r, err)
			return
		}

		switch {
		case errors.Is(err, usecase.ErrStreamClosed):
			logging.From(r.Context()).Info("client left the answer stream", logging.ErrAttr(err))
		default:
			// The error event has already been delivered
			errutil.Handle(r.Context(), err, "answer stream failed")
		}
	}
}
