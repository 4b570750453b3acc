package types

import "fmt"

// ReminderChannel is where an upcoming reminder is delivered in addition to the
// in-app notification log
type ReminderChannel string

const (
	ReminderChannelInApp ReminderChannel = "in_app"
	ReminderChannelSlack ReminderChannel = "slack"
)

// IsValid checks if the channel is valid
func (c ReminderChannel) IsValid() bool {
	switch c {
	case ReminderChannelInApp, ReminderChannelSlack:
		return true
	default:
		return false
	}
}

// String returns the string representation of the channel
func (c ReminderChannel) String() string {
	return string(c)
}

// ParseReminderChannel parses a string into a ReminderChannel. An empty string
// yields ReminderChannelInApp.
func ParseReminderChannel(s string) (ReminderChannel, error) {
	if s == "" {
		return ReminderChannelInApp, nil
	}
	c := ReminderChannel(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid reminder channel: %s", s)
	}
	return c, nil
}
