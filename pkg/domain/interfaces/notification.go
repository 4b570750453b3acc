package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// NotificationRepository defines the interface for UserNotification data persistence
type NotificationRepository interface {
	// Create inserts notification unconditionally
	Create(ctx context.Context, notification *model.UserNotification) (*model.UserNotification, error)

	// Exists reports whether a notification with key is stored
	Exists(ctx context.Context, key model.NotificationKey) (bool, error)

	// ListByOwner returns the owner's notifications, newest first. limit <= 0 returns all.
	ListByOwner(ctx context.Context, owner types.UserID, limit int) ([]*model.UserNotification, error)

	// CountUnread returns the number of unread notifications of owner
	CountUnread(ctx context.Context, owner types.UserID) (int, error)

	// UpdateStatus sets the status of an owner's notification. readAt is stored
	// when status is read.
	UpdateStatus(ctx context.Context, owner types.UserID, id model.NotificationID, status types.NotificationStatus, readAt time.Time) (*model.UserNotification, error)

	// Prune keeps the newest keep notifications of owner and deletes the rest.
	// It returns the number of deleted notifications.
	Prune(ctx context.Context, owner types.UserID, keep int) (int, error)
}
