package types

import "fmt"

// ReminderStatus represents the lifecycle state of a reminder
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusDone      ReminderStatus = "done"
	ReminderStatusSkipped   ReminderStatus = "skipped"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// AllReminderStatuses returns all valid reminder statuses
func AllReminderStatuses() []ReminderStatus {
	return []ReminderStatus{
		ReminderStatusPending,
		ReminderStatusDone,
		ReminderStatusSkipped,
		ReminderStatusCancelled,
	}
}

// IsValid checks if the reminder status is valid
func (s ReminderStatus) IsValid() bool {
	switch s {
	case ReminderStatusPending,
		ReminderStatusDone,
		ReminderStatusSkipped,
		ReminderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s
func (s ReminderStatus) IsTerminal() bool {
	return s != ReminderStatusPending
}

// CanTransitionTo reports whether a reminder in s may move to next
func (s ReminderStatus) CanTransitionTo(next ReminderStatus) bool {
	return s == ReminderStatusPending && next.IsValid() && next != ReminderStatusPending
}

// String returns the string representation of the reminder status
func (s ReminderStatus) String() string {
	return string(s)
}

// ParseReminderStatus parses a string into a ReminderStatus
func ParseReminderStatus(s string) (ReminderStatus, error) {
	status := ReminderStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reminder status: %s", s)
	}
	return status, nil
}
