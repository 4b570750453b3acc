package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
)

func TestGemini_Configure(t *testing.T) {
	t.Run("returns nil client when project ID is empty", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "us-central1")
		client, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, client).Nil()
		gt.Bool(t, cfg.IsConfigured()).False()
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "")
		flags := cfg.Flags()
		gt.Value(t, len(flags)).Equal(3)
	})
}

func TestGenAI_Configure(t *testing.T) {
	t.Run("no backend yields nil service", func(t *testing.T) {
		cfg := config.NewGenAIForTest(config.Gemini{}, config.OpenAI{}, 0)
		svc, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, svc).Nil()
	})

	t.Run("flags include both backends", func(t *testing.T) {
		var cfg config.GenAI
		gt.Value(t, len(cfg.Flags())).Equal(6)
	})
}
