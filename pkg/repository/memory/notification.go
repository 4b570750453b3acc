package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

type notificationRepository struct {
	mu      sync.RWMutex
	entries map[types.UserID][]*model.UserNotification
}

func newNotificationRepository() *notificationRepository {
	return &notificationRepository{
		entries: make(map[types.UserID][]*model.UserNotification),
	}
}

func copyNotification(n *model.UserNotification) *model.UserNotification {
	copied := *n
	if n.Data != nil {
		copied.Data = maps.Clone(n.Data)
	}
	if n.ScheduledAt != nil {
		v := *n.ScheduledAt
		copied.ScheduledAt = &v
	}
	if n.ReadAt != nil {
		v := *n.ReadAt
		copied.ReadAt = &v
	}
	return &copied
}

// newestFirst orders by CreatedAt descending, then by the time-ordered ID descending
func newestFirst(list []*model.UserNotification) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.UserNotification) (*model.UserNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyNotification(notification)
	if created.ID == "" {
		created.ID = model.NewNotificationID()
	}
	if created.Status == "" {
		created.Status = types.NotificationStatusUnread
	}
	if created.ScheduledAt != nil {
		v := created.ScheduledAt.UTC()
		created.ScheduledAt = &v
	}
	created.CreatedAt = time.Now().UTC()

	r.entries[created.OwnerID] = append(r.entries[created.OwnerID], created)
	return copyNotification(created), nil
}

func (r *notificationRepository) Exists(ctx context.Context, key model.NotificationKey) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.entries[key.OwnerID] {
		if n.Matches(key) {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepository) ListByOwner(ctx context.Context, owner types.UserID, limit int) ([]*model.UserNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.entries[owner]
	sorted := make([]*model.UserNotification, len(all))
	copy(sorted, all)
	newestFirst(sorted)

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	result := make([]*model.UserNotification, 0, len(sorted))
	for _, n := range sorted {
		result = append(result, copyNotification(n))
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, owner types.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.entries[owner] {
		if n.Status == types.NotificationStatusUnread {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, owner types.UserID, id model.NotificationID, status types.NotificationStatus, readAt time.Time) (*model.UserNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.entries[owner] {
		if n.ID != id {
			continue
		}
		n.Status = status
		if status == types.NotificationStatusRead {
			v := readAt.UTC()
			n.ReadAt = &v
		}
		return copyNotification(n), nil
	}

	return nil, goerr.Wrap(ErrNotFound, "notification not found",
		goerr.V(model.OwnerIDKey, owner), goerr.V("notification_id", id))
}

func (r *notificationRepository) Prune(ctx context.Context, owner types.UserID, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.entries[owner]
	if len(all) <= keep {
		return 0, nil
	}

	newestFirst(all)
	deleted := len(all) - keep
	r.entries[owner] = all[:keep:keep]
	return deleted, nil
}
