package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// ReminderRepository defines the interface for Reminder data persistence
type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) (*model.Reminder, error)
	Get(ctx context.Context, id model.ReminderID) (*model.Reminder, error)

	// ListByOwner returns the owner's reminders ordered by CreatedAt descending
	ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Reminder, error)

	// ListDue returns pending reminders with DueAt in [from, to], earliest first
	ListDue(ctx context.Context, from, to time.Time) ([]*model.Reminder, error)

	// UpdateStatus changes the status from `from` to `to` in one conditional write and
	// fails with model.ErrStatusConflict when the stored status is not `from`. DueAt is
	// never modified.
	UpdateStatus(ctx context.Context, id model.ReminderID, from, to types.ReminderStatus) (*model.Reminder, error)
}
