package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// OpenAI holds configuration for the OpenAI LLM client. It is used when Gemini is not
// configured.
type OpenAI struct {
	apiKey string
	model  string
}

func (o *OpenAI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "GenAI",
			Sources:     cli.EnvVars("CONTACTBOOK_OPENAI_API_KEY"),
			Destination: &o.apiKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name (empty for the client default)",
			Category:    "GenAI",
			Sources:     cli.EnvVars("CONTACTBOOK_OPENAI_MODEL"),
			Destination: &o.model,
		},
	}
}

func (o OpenAI) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api_key.len", len(o.apiKey)),
		slog.String("model", o.model),
	)
}

// IsConfigured reports whether an API key was given
func (o *OpenAI) IsConfigured() bool {
	return o.apiKey != ""
}

// Configure returns nil when no API key is configured
func (o *OpenAI) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if o.apiKey == "" {
		return nil, nil
	}

	var opts []openai.Option
	if o.model != "" {
		opts = append(opts, openai.WithModel(o.model))
	}

	client, err := openai.New(ctx, o.apiKey, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI client")
	}

	return client, nil
}
