package types

// UserID identifies the owner of reminders and notifications
type UserID string

// String returns the string representation of the user ID
func (id UserID) String() string {
	return string(id)
}
