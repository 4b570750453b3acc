package slack

import (
	"context"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
)

// Service delivers notifications to Slack
type Service interface {
	// PostNotification posts n to channelID and returns the message timestamp
	PostNotification(ctx context.Context, channelID string, n *model.UserNotification) (string, error)
}
