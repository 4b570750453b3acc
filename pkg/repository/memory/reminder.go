package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

type reminderRepository struct {
	mu        sync.RWMutex
	reminders map[model.ReminderID]*model.Reminder
}

func newReminderRepository() *reminderRepository {
	return &reminderRepository{
		reminders: make(map[model.ReminderID]*model.Reminder),
	}
}

func copyReminder(r *model.Reminder) *model.Reminder {
	copied := *r
	if r.DueAt != nil {
		due := *r.DueAt
		copied.DueAt = &due
	}
	return &copied
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) (*model.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyReminder(reminder)
	if created.ID == "" {
		created.ID = model.NewReminderID()
	}
	if created.DueAt != nil {
		due := created.DueAt.UTC()
		created.DueAt = &due
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.reminders[created.ID] = created
	return copyReminder(created), nil
}

func (r *reminderRepository) Get(ctx context.Context, id model.ReminderID) (*model.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reminder, exists := r.reminders[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
	}
	return copyReminder(reminder), nil
}

func (r *reminderRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Reminder, 0)
	for _, reminder := range r.reminders {
		if reminder.OwnerID == owner {
			result = append(result, copyReminder(reminder))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *reminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*model.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Reminder, 0)
	for _, reminder := range r.reminders {
		if reminder.IsDueWithin(from, to) {
			result = append(result, copyReminder(reminder))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DueAt.Equal(*result[j].DueAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].DueAt.Before(*result[j].DueAt)
	})

	return result, nil
}

func (r *reminderRepository) UpdateStatus(ctx context.Context, id model.ReminderID, from, to types.ReminderStatus) (*model.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reminder, exists := r.reminders[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
	}
	if reminder.Status != from {
		return nil, goerr.Wrap(model.ErrStatusConflict, "reminder status has changed",
			goerr.V(model.ReminderIDKey, id), goerr.V("expected", from), goerr.V("actual", reminder.Status))
	}

	reminder.Status = to
	reminder.UpdatedAt = time.Now().UTC()
	return copyReminder(reminder), nil
}
