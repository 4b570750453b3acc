package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// ReminderID is a UUID-based identifier for Reminder
type ReminderID string

// NewReminderID generates a new UUID v4 ReminderID
func NewReminderID() ReminderID {
	return ReminderID(uuid.New().String())
}

// String returns the string representation of the reminder ID
func (id ReminderID) String() string {
	return string(id)
}

// Reminder is a user-owned follow-up, optionally about a contact.
// DueAt is fixed at creation; only Status changes afterwards.
type Reminder struct {
	ID        ReminderID
	OwnerID   types.UserID
	ContactID string
	Title     string
	Note      string
	DueAt     *time.Time
	Status    types.ReminderStatus
	Channel   types.ReminderChannel
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the reminder can be stored
func (r *Reminder) Validate() error {
	if r.OwnerID == "" {
		return goerr.Wrap(ErrInvalidReminder, "owner is required")
	}
	if r.Title == "" {
		return goerr.Wrap(ErrInvalidReminder, "title is required")
	}
	if !r.Status.IsValid() {
		return goerr.Wrap(ErrInvalidReminder, "invalid status", goerr.V("status", r.Status))
	}
	if !r.Channel.IsValid() {
		return goerr.Wrap(ErrInvalidReminder, "invalid channel", goerr.V("channel", r.Channel))
	}
	return nil
}

// IsDueWithin reports whether the reminder is pending and due in [from, to]
func (r *Reminder) IsDueWithin(from, to time.Time) bool {
	if r.DueAt == nil || r.Status != types.ReminderStatusPending {
		return false
	}
	return !r.DueAt.Before(from) && !r.DueAt.After(to)
}
