package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// DefaultTimeout bounds a single generation, streaming included
const DefaultTimeout = 30 * time.Second

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

// Option is a functional option for client configuration
type Option func(*client)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// New creates a new generation service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(buildSystemPrompt(req.Locale, true)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(req)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM",
			goerr.V("timeout", c.timeout.String()))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("LLM returned no content")
	}

	var llmResp llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &llmResp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}
	if strings.TrimSpace(llmResp.Answer) == "" {
		return nil, goerr.New("LLM returned an empty answer")
	}

	result := &Result{
		Text:    llmResp.Answer,
		Sources: llmResp.Sources,
	}
	result.Usage.InputTokens = resp.InputToken
	result.Usage.OutputTokens = resp.OutputToken
	return result, nil
}

func (c *client) Stream(parent context.Context, req Request) (<-chan Chunk, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(buildSystemPrompt(req.Locale, false)),
	)
	if err != nil {
		cancel()
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	upstream, err := session.GenerateStream(ctx, gollem.Text(buildUserPrompt(req)))
	if err != nil {
		cancel()
		return nil, goerr.Wrap(err, "failed to start LLM stream")
	}

	out := make(chan Chunk)
	go func() {
		defer cancel()
		defer close(out)

		// Sending only gives up when the caller is gone, so a timeout still
		// reaches the reader as an error chunk
		send := func(chunk Chunk) bool {
			select {
			case out <- chunk:
				return true
			case <-parent.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				send(Chunk{Err: goerr.Wrap(ctx.Err(), "LLM stream interrupted",
					goerr.V("timeout", c.timeout.String()))})
				return

			case resp, ok := <-upstream:
				if !ok {
					return
				}
				if resp.Error != nil {
					send(Chunk{Err: goerr.Wrap(resp.Error, "LLM stream failed")})
					return
				}
				for _, text := range resp.Texts {
					if text == "" {
						continue
					}
					if !send(Chunk{Text: text}) {
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// buildSystemPrompt creates the fixed system prompt. structured selects the JSON
// answer format used by Generate.
func buildSystemPrompt(locale types.Locale, structured bool) string {
	var sb strings.Builder

	sb.WriteString("You are the in-app support assistant of a contact book and CRM application.\n")
	sb.WriteString("Users manage contacts, reminders and notifications on the web app and the mobile app.\n\n")
	sb.WriteString("## Instructions:\n\n")
	fmt.Fprintf(&sb, "1. Answer in %s.\n", languageName(locale))
	sb.WriteString("2. Give short, concrete, numbered steps when the question asks how to do something.\n")
	sb.WriteString("3. Tailor the steps to the platform the user is on.\n")
	sb.WriteString("4. Prefer the listed help articles. Never invent menu names that are not implied by them.\n")
	sb.WriteString("5. If you do not know, say so and suggest contacting support.\n")
	if structured {
		sb.WriteString("6. Return the answer text in `answer` and the titles of the help articles you used in `sources`.\n")
	}

	return sb.String()
}

// buildUserPrompt creates the user prompt with the question and the available articles
func buildUserPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Platform: %s\n\n", platformName(req.Platform))

	if len(req.Articles) > 0 {
		sb.WriteString("## Help articles:\n\n")
		for _, a := range req.Articles {
			fmt.Fprintf(&sb, "- [%s] %s (%s)\n", a.Category, a.Title, a.Key)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Question:\n\n")
	sb.WriteString(req.Question)
	sb.WriteString("\n")

	return sb.String()
}

func languageName(locale types.Locale) string {
	if locale == types.LocaleEN {
		return "English"
	}
	return "Vietnamese"
}

func platformName(p types.Platform) string {
	if p == types.PlatformMobile {
		return "mobile app"
	}
	return "web app"
}

// buildResponseSchema creates the JSON schema for structured output
func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "SupportAnswer",
		Description: "Answer to a support question",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"answer": {
				Type:        gollem.TypeString,
				Description: "The answer shown to the user",
			},
			"sources": {
				Type:        gollem.TypeArray,
				Description: "Titles of the help articles the answer relies on",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
		Required: []string{"answer", "sources"},
	}
}
