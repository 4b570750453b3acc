package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

func eventTypes(events []*model.StreamEvent) []types.StreamEventType {
	result := make([]types.StreamEventType, len(events))
	for i, e := range events {
		result[i] = e.Type
	}
	return result
}

func seedStreamKnowledge(t *testing.T) *memory.Memory {
	t.Helper()
	repo := memory.New()
	reset := newEntry("account-reset", "Reset password",
		withKeywords("password"),
		withSteps([]string{"Open settings", "Click reset", "Check mail"}, nil),
		withRelated("account-2fa", "missing"))
	reset.Content.Description = "Recover access to your account."
	reset.Content.Tips = []string{"Use a password manager"}
	seedKnowledge(t, repo, reset, newEntry("account-2fa", "Enable 2FA"))
	return repo
}

func TestStream_Knowledge(t *testing.T) {
	ctx := context.Background()
	repo := seedStreamKnowledge(t)
	uc := usecase.NewKnowledgeUseCase(repo, nil, usecase.WithStreamStepDelay(0))

	emitter := &recordingEmitter{}
	err := uc.Stream(ctx, question("forgot password", types.PlatformWeb, types.LocaleEN), emitter)
	gt.NoError(t, err).Required()

	gt.Value(t, eventTypes(emitter.events)).Equal([]types.StreamEventType{
		types.StreamEventStart,
		types.StreamEventTitle,
		types.StreamEventDescription,
		types.StreamEventStep,
		types.StreamEventStep,
		types.StreamEventStep,
		types.StreamEventTips,
		types.StreamEventRelated,
		types.StreamEventDone,
	})

	start := emitter.events[0]
	gt.Value(t, start.Source).Equal(types.AnswerSourceKnowledge)
	gt.Value(t, start.KnowledgeKey).Equal(model.KnowledgeKey("account-reset"))
	gt.Value(t, emitter.events[1].Text).Equal("Reset password")

	for i, e := range emitter.events[3:6] {
		gt.Value(t, e.Index).Equal(i + 1)
	}
	gt.Value(t, emitter.events[4].Text).Equal("Click reset")

	related := emitter.events[7].Related
	gt.Array(t, related).Length(1).Required()
	gt.Value(t, related[0].Key).Equal(model.KnowledgeKey("account-2fa"))

	gt.Value(t, viewCount(t, repo, "account-reset")).Equal(int64(1))
}

func TestStream_KnowledgeStepDelay(t *testing.T) {
	ctx := context.Background()
	repo := seedStreamKnowledge(t)
	uc := usecase.NewKnowledgeUseCase(repo, nil, usecase.WithStreamStepDelay(20*time.Millisecond))

	began := time.Now()
	err := uc.Stream(ctx, question("password", types.PlatformWeb, types.LocaleEN), &recordingEmitter{})
	gt.NoError(t, err).Required()
	// two pauses between three steps
	gt.Bool(t, time.Since(began) >= 40*time.Millisecond).True()
}

func TestStream_KnowledgeClientGone(t *testing.T) {
	ctx := context.Background()

	t.Run("emit failure stops the stream without counting a view", func(t *testing.T) {
		repo := seedStreamKnowledge(t)
		uc := usecase.NewKnowledgeUseCase(repo, nil, usecase.WithStreamStepDelay(0))

		emitter := &recordingEmitter{failAfter: 4}
		err := uc.Stream(ctx, question("password", types.PlatformWeb, types.LocaleEN), emitter)
		gt.Error(t, err).Is(usecase.ErrStreamClosed)
		gt.Array(t, emitter.events).Length(4)
		gt.Value(t, viewCount(t, repo, "account-reset")).Equal(int64(0))
	})

	t.Run("failing done event does not count a view", func(t *testing.T) {
		repo := seedStreamKnowledge(t)
		uc := usecase.NewKnowledgeUseCase(repo, nil, usecase.WithStreamStepDelay(0))

		emitter := &recordingEmitter{failAfter: 8}
		err := uc.Stream(ctx, question("password", types.PlatformWeb, types.LocaleEN), emitter)
		gt.Error(t, err).Is(usecase.ErrStreamClosed)
		gt.Value(t, viewCount(t, repo, "account-reset")).Equal(int64(0))
	})

	t.Run("cancellation between steps", func(t *testing.T) {
		repo := seedStreamKnowledge(t)
		uc := usecase.NewKnowledgeUseCase(repo, nil, usecase.WithStreamStepDelay(time.Hour))

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		emitter := &cancellingEmitter{cancel: cancel, on: types.StreamEventStep}

		err := uc.Stream(ctx, question("password", types.PlatformWeb, types.LocaleEN), emitter)
		gt.Error(t, err).Is(usecase.ErrStreamClosed)
		gt.Value(t, emitter.events[len(emitter.events)-1].Type).Equal(types.StreamEventStep)
		gt.Value(t, viewCount(t, repo, "account-reset")).Equal(int64(0))
	})
}

type cancellingEmitter struct {
	recordingEmitter
	cancel context.CancelFunc
	on     types.StreamEventType
}

func (e *cancellingEmitter) Emit(ctx context.Context, event *model.StreamEvent) error {
	if err := e.recordingEmitter.Emit(ctx, event); err != nil {
		return err
	}
	if event.Type == e.on {
		e.cancel()
	}
	return nil
}

func TestStream_Generated(t *testing.T) {
	ctx := context.Background()

	t.Run("chunks are relayed verbatim", func(t *testing.T) {
		gen := &mockGenAI{chunks: []genai.Chunk{{Text: "Hel"}, {Text: "lo, "}, {Text: "world\n"}}}
		uc := usecase.NewKnowledgeUseCase(memory.New(), gen)

		emitter := &recordingEmitter{}
		err := uc.Stream(ctx, question("export data", types.PlatformWeb, types.LocaleEN), emitter)
		gt.NoError(t, err).Required()

		gt.Value(t, eventTypes(emitter.events)).Equal([]types.StreamEventType{
			types.StreamEventStart,
			types.StreamEventChunk,
			types.StreamEventChunk,
			types.StreamEventChunk,
			types.StreamEventDone,
		})
		gt.Value(t, emitter.events[0].Source).Equal(types.AnswerSourceAI)
		gt.Value(t, emitter.events[2].Text).Equal("lo, ")
		gt.Value(t, emitter.events[3].Text).Equal("world\n")
	})

	t.Run("upstream error ends with one error event", func(t *testing.T) {
		cause := goerr.New("stream reset")
		gen := &mockGenAI{chunks: []genai.Chunk{{Text: "partial"}, {Err: cause}}}
		uc := usecase.NewKnowledgeUseCase(memory.New(), gen)

		emitter := &recordingEmitter{}
		err := uc.Stream(ctx, question("export data", types.PlatformWeb, types.LocaleEN), emitter)
		gt.Error(t, err).Is(usecase.ErrGenerationFailed)
		gt.Error(t, err).Is(cause)

		gt.Value(t, eventTypes(emitter.events)).Equal([]types.StreamEventType{
			types.StreamEventStart,
			types.StreamEventChunk,
			types.StreamEventError,
		})
		gt.Value(t, emitter.events[2].Text).Equal(usecase.GenerationFailedMessage(types.LocaleEN))
	})

	t.Run("stream that never starts sends only the error", func(t *testing.T) {
		gen := &mockGenAI{streamErr: goerr.New("unavailable")}
		uc := usecase.NewKnowledgeUseCase(memory.New(), gen)

		emitter := &recordingEmitter{}
		err := uc.Stream(ctx, question("xuất dữ liệu", types.PlatformMobile, types.LocaleVI), emitter)
		gt.Error(t, err).Is(usecase.ErrGenerationFailed)
		gt.Array(t, emitter.events).Length(1).Required()
		gt.Value(t, emitter.events[0].Type).Equal(types.StreamEventError)
		gt.Value(t, emitter.events[0].Text).Equal(usecase.GenerationFailedMessage(types.LocaleVI))
	})

	t.Run("invalid question emits nothing", func(t *testing.T) {
		uc := usecase.NewKnowledgeUseCase(memory.New(), &mockGenAI{})

		emitter := &recordingEmitter{}
		err := uc.Stream(ctx, question("", types.PlatformWeb, types.LocaleEN), emitter)
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
		gt.Array(t, emitter.events).Length(0)
	})
}
