package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type sseEvent struct {
	Type         string            `json:"type"`
	Source       string            `json:"source,omitempty"`
	KnowledgeKey string            `json:"knowledge_key,omitempty"`
	Text         string            `json:"text,omitempty"`
	Index        int               `json:"index,omitempty"`
	Items        []string          `json:"items,omitempty"`
	Related      []relatedResponse `json:"related,omitempty"`
}

// sseEmitter writes stream events as Server-Sent Events. Each event is flushed
// before Emit returns. It is used by one handler goroutine only.
type sseEmitter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

var _ usecase.Emitter = (*sseEmitter)(nil)

func newSSEEmitter(w http.ResponseWriter) *sseEmitter {
	return &sseEmitter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// Started reports whether the response header has been sent
func (e *sseEmitter) Started() bool {
	return e.started
}

func (e *sseEmitter) Emit(ctx context.Context, event *model.StreamEvent) error {
	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "client is gone")
	}

	data, err := json.Marshal(sseEvent{
		Type:         event.Type.String(),
		Source:       event.Source.String(),
		KnowledgeKey: event.KnowledgeKey.String(),
		Text:         event.Text,
		Index:        event.Index,
		Items:        event.Items,
		Related:      toRelated(event.Related),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal stream event")
	}

	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return goerr.Wrap(err, "failed to write stream event")
	}
	if err := e.rc.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush stream event")
	}
	return nil
}
