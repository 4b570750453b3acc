package slack

import (
	"fmt"
	"unicode/utf8"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Slack rejects section text longer than this
const maxSectionTextBytes = 3000

func buildNotificationBlocks(n *model.UserNotification) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncateToMaxBytes(n.Title, 150), true, false)),
	}

	if n.Body != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(n.Body, maxSectionTextBytes), false, false),
			nil, nil,
		))
	}

	if n.Type == types.NotificationTypeReminderUpcoming && n.ScheduledAt != nil {
		due := fmt.Sprintf(":alarm_clock: due <!date^%d^{date_short_pretty} {time}|%s>",
			n.ScheduledAt.Unix(), n.ScheduledAt.UTC().Format("2006-01-02 15:04 UTC"))
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, due, false, false),
		))
	}

	return blocks
}

// fallbackText is shown in push notifications and clients without block support
func fallbackText(n *model.UserNotification) string {
	if n.Body == "" {
		return n.Title
	}
	return truncateToMaxBytes(n.Title+": "+n.Body, maxSectionTextBytes)
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
