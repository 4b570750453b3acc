package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// NotificationRetention is the number of notifications kept per owner
const NotificationRetention = 50

// NotificationID is a time-ordered UUID v7 identifier, so that ordering by ID
// follows insertion order
type NotificationID string

// NewNotificationID generates a new UUID v7 NotificationID
func NewNotificationID() NotificationID {
	return NotificationID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of the notification ID
func (id NotificationID) String() string {
	return string(id)
}

// UserNotification is one entry of a user's notification log. ContactID and
// ReminderID are back-references only; the referenced rows may be gone.
type UserNotification struct {
	ID          NotificationID
	OwnerID     types.UserID
	Type        types.NotificationType
	Title       string
	Body        string
	Data        map[string]any
	ContactID   string
	ReminderID  ReminderID
	Status      types.NotificationStatus
	ScheduledAt *time.Time
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// NotificationKey identifies the one upcoming notification a reminder may have
// for a given due time
type NotificationKey struct {
	OwnerID     types.UserID
	Type        types.NotificationType
	ReminderID  ReminderID
	ScheduledAt time.Time
}

// ReminderUpcomingKey returns the dedup key of the upcoming notification for r
func ReminderUpcomingKey(r *Reminder) NotificationKey {
	key := NotificationKey{
		OwnerID:    r.OwnerID,
		Type:       types.NotificationTypeReminderUpcoming,
		ReminderID: r.ID,
	}
	if r.DueAt != nil {
		key.ScheduledAt = r.DueAt.UTC()
	}
	return key
}

// Matches reports whether n carries key
func (n *UserNotification) Matches(key NotificationKey) bool {
	return n.OwnerID == key.OwnerID &&
		n.Type == key.Type &&
		n.ReminderID == key.ReminderID &&
		n.ScheduledAt != nil &&
		n.ScheduledAt.Equal(key.ScheduledAt)
}
