package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdScan() *cli.Command {
	var leadMinutes int
	var now string
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "lead-minutes",
			Usage:       "Notify reminders due within this many minutes",
			Value:       int(usecase.DefaultReminderLead / time.Minute),
			Sources:     cli.EnvVars("CONTACTBOOK_SCAN_LEAD_MINUTES"),
			Destination: &leadMinutes,
		},
		&cli.StringFlag{
			Name:        "now",
			Usage:       "Scan as of this time (RFC3339, default: current time)",
			Destination: &now,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Run one reminder scan, e.g. from an external scheduler",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			opt, err := buildScanOption(leadMinutes, now)
			if err != nil {
				return err
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
			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts, usecase.WithSlack(slackSvc, slackCfg.ChannelID()))
			}

			uc := usecase.New(repo, ucOpts...)
			result, err := uc.Scanner.Scan(ctx, opt)
			if err != nil {
				return goerr.Wrap(err, "reminder scan failed")
			}

			logging.Default().Info("Reminder scan completed",
				"created", result.Created,
				"skipped", result.Skipped,
				"failed", result.Failed,
				"delivered", result.Delivered,
			)
			return nil
		},
	}
}

func buildScanOption(leadMinutes int, now string) (usecase.ScanOption, error) {
	if leadMinutes <= 0 {
		return usecase.ScanOption{}, goerr.New("--lead-minutes must be positive", goerr.V("lead_minutes", leadMinutes))
	}

	opt := usecase.ScanOption{Lead: time.Duration(leadMinutes) * time.Minute}
	if now != "" {
		t, err := time.Parse(time.RFC3339, now)
		if err != nil {
			return usecase.ScanOption{}, goerr.Wrap(err, "--now must be RFC3339", goerr.V("now", now))
		}
		opt.Now = t
	}
	return opt, nil
}
