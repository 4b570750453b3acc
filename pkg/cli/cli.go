package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const envFileFlag = "env-file"

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var envFile string
	var closers []func()

	// .env values must be in the environment before flag sources are resolved
	if path := findEnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
		}
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        envFileFlag,
			Usage:       "Load environment variables from a .env file",
			Destination: &envFile,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "contactbook",
		Usage:   "Contact book backend with help center answers and reminders",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting contactbook",
				"version", version,
				"logger", loggerCfg,
				"sentry", sentryCfg,
				"env_file", envFile,
			)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdScan(),
			cmdMigrate(),
			cmdKnowledge(),
			cmdAsk(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttr(err))
		return err
	}

	return nil
}

// findEnvFile picks --env-file out of the raw arguments
func findEnvFile(args []string) string {
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, envFileFlag+"="); ok {
			return value
		}
		if name == envFileFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
