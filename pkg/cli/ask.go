package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var question string
	var platform string
	var locale string
	var repoCfg config.Repository
	var genaiCfg config.GenAI

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "Question to answer",
			Required:    true,
			Destination: &question,
		},
		&cli.StringFlag{
			Name:        "platform",
			Usage:       "Client platform (web or mobile)",
			Value:       string(types.PlatformWeb),
			Destination: &platform,
		},
		&cli.StringFlag{
			Name:        "locale",
			Usage:       "Answer locale (vi or en)",
			Value:       string(types.DefaultLocale),
			Destination: &locale,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, genaiCfg.Flags()...)

	return &cli.Command{
		Name:  "ask",
		Usage: "Answer a question from the terminal as the streaming endpoint would",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			p, err := types.ParseClientPlatform(platform)
			if err != nil {
				return goerr.Wrap(err, "invalid --platform")
			}
			l, err := types.ParseLocale(locale)
			if err != nil {
				return goerr.Wrap(err, "invalid --locale")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", logging.ErrAttr(err))
				}
			}()

			var ucOpts []usecase.Option
			gen, err := genaiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure generative backend")
			}
			if gen != nil {
				ucOpts = append(ucOpts, usecase.WithGenAI(gen))
			}

			uc := usecase.New(repo, ucOpts...)
			q := model.Question{Text: question, Platform: p, Locale: l}
			return uc.Knowledge.Stream(ctx, q, newTerminalEmitter(os.Stdout))
		},
	}
}

var (
	sourceColor  = color.New(color.FgCyan, color.Bold)
	titleColor   = color.New(color.Bold)
	stepColor    = color.New(color.FgGreen)
	tipsColor    = color.New(color.FgYellow)
	relatedColor = color.New(color.Faint)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// terminalEmitter prints stream events as they arrive
type terminalEmitter struct {
	w         io.Writer
	streaming bool
}

func newTerminalEmitter(w io.Writer) *terminalEmitter {
	return &terminalEmitter{w: w}
}

func (e *terminalEmitter) Emit(ctx context.Context, event *model.StreamEvent) error {
	var err error
	switch event.Type {
	case types.StreamEventStart:
		if event.KnowledgeKey != "" {
			_, err = sourceColor.Fprintf(e.w, "[%s] %s\n", event.Source, event.KnowledgeKey)
		} else {
			_, err = sourceColor.Fprintf(e.w, "[%s]\n", event.Source)
		}

	case types.StreamEventTitle:
		_, err = titleColor.Fprintln(e.w, event.Text)

	case types.StreamEventDescription:
		_, err = fmt.Fprintf(e.w, "\n%s\n\n", event.Text)

	case types.StreamEventStep:
		_, err = stepColor.Fprintf(e.w, "%d. %s\n", event.Index, event.Text)

	case types.StreamEventTips:
		err = e.list(tipsColor, "Tips", event.Items)

	case types.StreamEventRelated:
		items := make([]string, len(event.Related))
		for i, r := range event.Related {
			items[i] = fmt.Sprintf("%s (%s)", r.Title, r.Key)
		}
		err = e.list(relatedColor, "Related", items)

	case types.StreamEventChunk:
		e.streaming = true
		_, err = fmt.Fprint(e.w, event.Text)

	case types.StreamEventDone:
		if e.streaming {
			_, err = fmt.Fprintln(e.w)
		}

	case types.StreamEventError:
		_, err = errorColor.Fprintf(e.w, "\n%s\n", event.Text)
	}
	return err
}

func (e *terminalEmitter) list(c *color.Color, heading string, items []string) error {
	if _, err := c.Fprintf(e.w, "\n%s:\n", heading); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := c.Fprintf(e.w, "  - %s\n", item); err != nil {
			return err
		}
	}
	return nil
}
