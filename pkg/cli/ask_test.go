package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/cli"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

func disableColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = orig
	})
}

func TestTerminalEmitter(t *testing.T) {
	disableColor(t)

	t.Run("knowledge answer", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := cli.NewTerminalEmitterForTest(&buf)
		ctx := context.Background()

		events := []*model.StreamEvent{
			{Type: types.StreamEventStart, Source: types.AnswerSourceKnowledge, KnowledgeKey: "change-password"},
			{Type: types.StreamEventTitle, Text: "Change your password"},
			{Type: types.StreamEventDescription, Text: "Update your sign-in password."},
			{Type: types.StreamEventStep, Index: 1, Text: "Open Settings"},
			{Type: types.StreamEventStep, Index: 2, Text: "Choose Security"},
			{Type: types.StreamEventTips, Items: []string{"Use a passphrase"}},
			{Type: types.StreamEventRelated, Related: []model.RelatedArticle{{Key: "reset-password", Title: "Reset password"}}},
			{Type: types.StreamEventDone},
		}
		for _, ev := range events {
			gt.NoError(t, emitter.Emit(ctx, ev))
		}

		gt.Value(t, buf.String()).Equal("[knowledge] change-password\n" +
			"Change your password\n" +
			"\nUpdate your sign-in password.\n\n" +
			"1. Open Settings\n" +
			"2. Choose Security\n" +
			"\nTips:\n  - Use a passphrase\n" +
			"\nRelated:\n  - Reset password (reset-password)\n")
	})

	t.Run("generated answer", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := cli.NewTerminalEmitterForTest(&buf)
		ctx := context.Background()

		events := []*model.StreamEvent{
			{Type: types.StreamEventStart, Source: types.AnswerSourceAI},
			{Type: types.StreamEventChunk, Text: "Open "},
			{Type: types.StreamEventChunk, Text: "Settings."},
			{Type: types.StreamEventDone},
		}
		for _, ev := range events {
			gt.NoError(t, emitter.Emit(ctx, ev))
		}
		gt.Value(t, buf.String()).Equal("[ai]\nOpen Settings.\n")
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := cli.NewTerminalEmitterForTest(&buf)
		gt.NoError(t, emitter.Emit(context.Background(), &model.StreamEvent{Type: types.StreamEventError, Text: "try again later"}))
		gt.Value(t, buf.String()).Equal("\ntry again later\n")
	})
}

func TestRun_Ask(t *testing.T) {
	disableColor(t)

	t.Run("invalid platform", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{
			"contactbook", "ask", "--question", "how to import", "--platform", "all", "--repository-backend", "memory",
		}, "test")
		gt.Error(t, err)
	})

	t.Run("no match and no generative backend", func(t *testing.T) {
		t.Setenv("CONTACTBOOK_GEMINI_PROJECT", "")
		t.Setenv("CONTACTBOOK_OPENAI_API_KEY", "")
		err := cli.Run(context.Background(), []string{
			"contactbook", "ask", "--question", "how to import", "--repository-backend", "memory",
		}, "test")
		gt.Error(t, err)
	})
}
