package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack configures delivery of reminder notifications to a Slack channel
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for posting reminders",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("CONTACTBOOK_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID that receives reminder notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("CONTACTBOOK_SLACK_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
	)
}

// IsConfigured checks if Slack delivery is enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// ChannelID returns the destination channel
func (x *Slack) ChannelID() string {
	return x.channelID
}

// Configure returns nil when no bot token is set
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "--slack-channel is required with --slack-bot-token")
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}
