package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// ErrStreamClosed is returned when an event could not be delivered, e.g. because
// the client went away. Nothing after the failed event has happened.
var ErrStreamClosed = errors.New("answer stream closed")

// Emitter delivers stream events to one client in call order. Emit returns after the
// event is flushed.
type Emitter interface {
	Emit(ctx context.Context, event *model.StreamEvent) error
}

// Stream resolves q like Resolve and delivers the answer as events. The view count
// of a matched entry is incremented only after the done event is delivered.
// Upstream generation failures are reported to the client as one error event and
// returned tagged with ErrGenerationFailed.
func (uc *KnowledgeUseCase) Stream(ctx context.Context, q model.Question, emitter Emitter) error {
	if q.Locale == "" {
		q.Locale = types.DefaultLocale
	}
	if err := q.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidInput, err.Error())
	}

	entry, err := uc.match(ctx, q)
	if err != nil {
		return err
	}

	if entry != nil {
		return uc.streamKnowledge(ctx, entry, q.Platform, emitter)
	}
	return uc.streamGenerated(ctx, q, emitter)
}

func emit(ctx context.Context, emitter Emitter, event *model.StreamEvent) error {
	if err := emitter.Emit(ctx, event); err != nil {
		return goerr.Wrap(errors.Join(ErrStreamClosed, err), "failed to emit event", goerr.V("event", event.Type))
	}
	return nil
}

func (uc *KnowledgeUseCase) streamKnowledge(ctx context.Context, entry *model.KnowledgeEntry, platform types.Platform, emitter Emitter) error {
	answer := model.NewKnowledgeAnswer(entry, platform, uc.relatedArticles(ctx, entry))

	events := []*model.StreamEvent{
		{Type: types.StreamEventStart, Source: types.AnswerSourceKnowledge, KnowledgeKey: answer.KnowledgeKey},
		{Type: types.StreamEventTitle, Text: answer.Title},
	}
	if answer.Description != "" {
		events = append(events, &model.StreamEvent{Type: types.StreamEventDescription, Text: answer.Description})
	}
	for _, event := range events {
		if err := emit(ctx, emitter, event); err != nil {
			return err
		}
	}

	for i, step := range answer.Steps {
		if i > 0 {
			if err := sleep(ctx, uc.stepDelay); err != nil {
				return goerr.Wrap(errors.Join(ErrStreamClosed, err), "stream cancelled between steps")
			}
		}
		if err := emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventStep, Index: i + 1, Text: step}); err != nil {
			return err
		}
	}

	if len(answer.Tips) > 0 {
		if err := emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventTips, Items: answer.Tips}); err != nil {
			return err
		}
	}
	if len(answer.Related) > 0 {
		if err := emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventRelated, Related: answer.Related}); err != nil {
			return err
		}
	}

	done := &model.StreamEvent{
		Type:         types.StreamEventDone,
		Source:       types.AnswerSourceKnowledge,
		KnowledgeKey: answer.KnowledgeKey,
	}
	if err := emit(ctx, emitter, done); err != nil {
		return err
	}

	uc.countView(ctx, entry.Key)
	return nil
}

func (uc *KnowledgeUseCase) streamGenerated(ctx context.Context, q model.Question, emitter Emitter) error {
	fail := func(cause error) error {
		event := &model.StreamEvent{
			Type:   types.StreamEventError,
			Source: types.AnswerSourceAI,
			Text:   GenerationFailedMessage(q.Locale),
		}
		if err := emit(ctx, emitter, event); err != nil {
			return err
		}
		return goerr.Wrap(generationFailed(cause), "failed to stream generated answer",
			goerr.V(PlatformKey, q.Platform), goerr.V(LocaleKey, q.Locale))
	}

	if uc.genai == nil {
		return fail(errors.New("generative backend is not configured"))
	}

	req, err := uc.generationRequest(ctx, q)
	if err != nil {
		return fail(err)
	}

	// Stops the upstream reader when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := uc.genai.Stream(ctx, req)
	if err != nil {
		return fail(err)
	}

	if err := emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventStart, Source: types.AnswerSourceAI}); err != nil {
		return err
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			return fail(chunk.Err)
		}
		if err := emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventChunk, Text: chunk.Text}); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return goerr.Wrap(errors.Join(ErrStreamClosed, err), "stream cancelled")
	}

	return emit(ctx, emitter, &model.StreamEvent{Type: types.StreamEventDone, Source: types.AnswerSourceAI})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
