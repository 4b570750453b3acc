package types

import "fmt"

// NotificationStatus represents the read state of a user notification
type NotificationStatus string

const (
	NotificationStatusUnread   NotificationStatus = "unread"
	NotificationStatusRead     NotificationStatus = "read"
	NotificationStatusDone     NotificationStatus = "done"
	NotificationStatusArchived NotificationStatus = "archived"
)

// IsValid checks if the notification status is valid
func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationStatusUnread,
		NotificationStatusRead,
		NotificationStatusDone,
		NotificationStatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the notification status
func (s NotificationStatus) String() string {
	return string(s)
}

// ParseNotificationStatus parses a string into a NotificationStatus
func ParseNotificationStatus(s string) (NotificationStatus, error) {
	status := NotificationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid notification status: %s", s)
	}
	return status, nil
}

// NotificationType is the event tag of a user notification, e.g. "reminder.upcoming".
// The set is open; callers may log any dotted tag.
type NotificationType string

const (
	NotificationTypeReminderUpcoming NotificationType = "reminder.upcoming"
	NotificationTypeContactCreated   NotificationType = "contact.created"
)

// String returns the string representation of the notification type
func (t NotificationType) String() string {
	return string(t)
}
