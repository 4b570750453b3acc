package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

// NotificationUseCase owns the per-user notification log. Every write is followed
// by pruning the owner's log down to model.NotificationRetention entries.
type NotificationUseCase struct {
	repo      interfaces.Repository
	clock     func() time.Time
	retention int

	// owner -> *sync.Mutex; log and prune of one owner run as one unit
	ownerLocks sync.Map
}

func NewNotificationUseCase(repo interfaces.Repository, clock func() time.Time) *NotificationUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &NotificationUseCase{
		repo:      repo,
		clock:     clock,
		retention: model.NotificationRetention,
	}
}

func (uc *NotificationUseCase) lockOwner(owner types.UserID) func() {
	v, _ := uc.ownerLocks.LoadOrStore(owner, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Log stores notification unconditionally and prunes the owner's log. Callers
// deduplicate before calling.
func (uc *NotificationUseCase) Log(ctx context.Context, notification *model.UserNotification) (*model.UserNotification, error) {
	if notification.OwnerID == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "notification owner is required")
	}
	if notification.Type == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "notification type is required", goerr.V(model.OwnerIDKey, notification.OwnerID))
	}
	if notification.Title == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "notification title is required", goerr.V(model.OwnerIDKey, notification.OwnerID))
	}

	unlock := uc.lockOwner(notification.OwnerID)
	defer unlock()

	created, err := uc.repo.Notification().Create(ctx, notification)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create notification", goerr.V(model.OwnerIDKey, notification.OwnerID))
	}

	if _, err := uc.prune(ctx, notification.OwnerID); err != nil {
		return nil, err
	}

	return created, nil
}

// Prune deletes all but the newest notifications of owner and returns how many were deleted
func (uc *NotificationUseCase) Prune(ctx context.Context, owner types.UserID) (int, error) {
	unlock := uc.lockOwner(owner)
	defer unlock()

	return uc.prune(ctx, owner)
}

func (uc *NotificationUseCase) prune(ctx context.Context, owner types.UserID) (int, error) {
	deleted, err := uc.repo.Notification().Prune(ctx, owner, uc.retention)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to prune notifications", goerr.V(model.OwnerIDKey, owner))
	}
	if deleted > 0 {
		logging.From(ctx).Debug("pruned notifications", "owner_id", owner, "deleted", deleted)
	}
	return deleted, nil
}

// List returns the newest notifications of owner. limit is capped to the retention size.
func (uc *NotificationUseCase) List(ctx context.Context, owner types.UserID, limit int) ([]*model.UserNotification, error) {
	if limit <= 0 || limit > uc.retention {
		limit = uc.retention
	}

	list, err := uc.repo.Notification().ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notifications", goerr.V(model.OwnerIDKey, owner))
	}
	return list, nil
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, owner types.UserID) (int, error) {
	count, err := uc.repo.Notification().CountUnread(ctx, owner)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count unread notifications", goerr.V(model.OwnerIDKey, owner))
	}
	return count, nil
}

// UpdateStatus changes the status of one of owner's notifications. Moving to read
// stamps read_at.
func (uc *NotificationUseCase) UpdateStatus(ctx context.Context, owner types.UserID, id model.NotificationID, status types.NotificationStatus) (*model.UserNotification, error) {
	if !status.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid notification status", goerr.V("status", status))
	}

	updated, err := uc.repo.Notification().UpdateStatus(ctx, owner, id, status, uc.clock().UTC())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotificationNotFound, "notification not found",
				goerr.V(model.OwnerIDKey, owner), goerr.V(NotificationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update notification status",
			goerr.V(model.OwnerIDKey, owner), goerr.V(NotificationIDKey, id))
	}
	return updated, nil
}
