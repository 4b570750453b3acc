package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
	httpctrl "github.com/secmon-lab/contactbook/pkg/controller/http"
	"github.com/secmon-lab/contactbook/pkg/service/worker"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var scanInterval time.Duration
	var lead time.Duration
	var cacheTTL time.Duration
	var stepDelay time.Duration
	var repoCfg config.Repository
	var genaiCfg config.GenAI
	var authCfg config.Auth
	var slackCfg config.Slack
	var corsCfg config.CORS

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CONTACTBOOK_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "reminder-scan-interval",
			Usage:       "Interval of the reminder scan worker (0 disables it)",
			Category:    "Reminder",
			Value:       time.Minute,
			Sources:     cli.EnvVars("CONTACTBOOK_REMINDER_SCAN_INTERVAL"),
			Destination: &scanInterval,
		},
		&cli.DurationFlag{
			Name:        "reminder-lead",
			Usage:       "How long before due_at a reminder produces its notification",
			Category:    "Reminder",
			Value:       usecase.DefaultReminderLead,
			Sources:     cli.EnvVars("CONTACTBOOK_REMINDER_LEAD"),
			Destination: &lead,
		},
		&cli.DurationFlag{
			Name:        "knowledge-cache-ttl",
			Usage:       "How long the article list given to the generative backend is reused (0 disables caching)",
			Category:    "Knowledge",
			Value:       usecase.DefaultKnowledgeCacheTTL,
			Sources:     cli.EnvVars("CONTACTBOOK_KNOWLEDGE_CACHE_TTL"),
			Destination: &cacheTTL,
		},
		&cli.DurationFlag{
			Name:        "stream-step-delay",
			Usage:       "Pause between streamed step events",
			Category:    "Knowledge",
			Value:       usecase.DefaultStepDelay,
			Sources:     cli.EnvVars("CONTACTBOOK_STREAM_STEP_DELAY"),
			Destination: &stepDelay,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, genaiCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, corsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", logging.ErrAttr(err))
				}
			}()

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logging.Default().Warn("Running in no-auth mode (development only)", "auth", authCfg)
			}

			ucOpts := []usecase.Option{
				usecase.WithAuth(authUC),
				usecase.WithKnowledgeCacheTTL(cacheTTL),
				usecase.WithStepDelay(stepDelay),
			}

			gen, err := genaiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure generative backend")
			}
			if gen != nil {
				ucOpts = append(ucOpts, usecase.WithGenAI(gen))
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts, usecase.WithSlack(slackSvc, slackCfg.ChannelID()))
				logging.Default().Info("Slack delivery enabled for reminders", "slack", slackCfg)
			}

			uc := usecase.New(repo, ucOpts...)

			scanWorker := worker.NewReminderScanWorker(uc.Scanner, scanInterval, worker.WithLead(lead))
			if err := scanWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start reminder scan worker")
			}

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(uc,
					httpctrl.WithAuth(authUC),
					httpctrl.WithCORS(corsCfg.Origins()),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "scan_interval", scanInterval)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				scanWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				scanWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
