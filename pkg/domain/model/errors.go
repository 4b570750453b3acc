package model

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is wrapped by every repository backend when the requested item does not exist
var ErrNotFound = goerr.New("not found")

// Validation errors for contactbook entities
var (
	ErrInvalidKnowledge = goerr.New("invalid knowledge entry")
	ErrInvalidReminder  = goerr.New("invalid reminder")
	ErrInvalidQuestion  = goerr.New("invalid question")
)

// ErrStatusConflict is returned by conditional status updates when the stored status
// is no longer the expected one
var ErrStatusConflict = goerr.New("status conflict")

// Context keys for error values
const (
	KnowledgeKeyKey = "knowledge_key"
	ReminderIDKey   = "reminder_id"
	OwnerIDKey      = "owner_id"
)
