package config

import (
	"context"
	"time"

	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// GenAI selects the generative backend used when no knowledge entry matches.
// Gemini wins when both backends are configured.
type GenAI struct {
	Gemini  Gemini
	OpenAI  OpenAI
	timeout time.Duration
}

func (x *GenAI) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "genai-timeout",
			Usage:       "Timeout of a single generated answer",
			Category:    "GenAI",
			Value:       genai.DefaultTimeout,
			Sources:     cli.EnvVars("CONTACTBOOK_GENAI_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
	flags = append(flags, x.Gemini.Flags()...)
	flags = append(flags, x.OpenAI.Flags()...)
	return flags
}

// Configure returns nil when neither backend is configured; questions without a
// matching entry then fail with a generation error.
func (x *GenAI) Configure(ctx context.Context) (genai.Service, error) {
	var opts []genai.Option
	if x.timeout > 0 {
		opts = append(opts, genai.WithTimeout(x.timeout))
	}

	switch {
	case x.Gemini.IsConfigured():
		client, err := x.Gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		logging.Default().Info("Generative answers enabled", "backend", "gemini")
		return genai.New(client, opts...)

	case x.OpenAI.IsConfigured():
		client, err := x.OpenAI.Configure(ctx)
		if err != nil {
			return nil, err
		}
		logging.Default().Info("Generative answers enabled", "backend", "openai")
		return genai.New(client, opts...)

	default:
		logging.Default().Warn("No generative backend configured, unmatched questions will fail")
		return nil, nil
	}
}
