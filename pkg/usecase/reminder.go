package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

type ReminderUseCase struct {
	repo interfaces.Repository
}

func NewReminderUseCase(repo interfaces.Repository) *ReminderUseCase {
	return &ReminderUseCase{
		repo: repo,
	}
}

// CreateReminderInput is what a user supplies for a new reminder
type CreateReminderInput struct {
	Title     string
	Note      string
	ContactID string
	DueAt     *time.Time
	Channel   types.ReminderChannel
}

func (uc *ReminderUseCase) CreateReminder(ctx context.Context, owner types.UserID, input CreateReminderInput) (*model.Reminder, error) {
	channel := input.Channel
	if channel == "" {
		channel = types.ReminderChannelInApp
	}

	reminder := &model.Reminder{
		OwnerID:   owner,
		ContactID: strings.TrimSpace(input.ContactID),
		Title:     strings.TrimSpace(input.Title),
		Note:      input.Note,
		DueAt:     input.DueAt,
		Status:    types.ReminderStatusPending,
		Channel:   channel,
	}
	if err := reminder.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V(model.OwnerIDKey, owner))
	}

	created, err := uc.repo.Reminder().Create(ctx, reminder)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create reminder", goerr.V(model.OwnerIDKey, owner))
	}
	return created, nil
}

func (uc *ReminderUseCase) ListReminders(ctx context.Context, owner types.UserID) ([]*model.Reminder, error) {
	reminders, err := uc.repo.Reminder().ListByOwner(ctx, owner)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reminders", goerr.V(model.OwnerIDKey, owner))
	}
	return reminders, nil
}

// GetReminder returns the reminder when owner owns it. Someone else's reminder is
// reported as not found.
func (uc *ReminderUseCase) GetReminder(ctx context.Context, owner types.UserID, id model.ReminderID) (*model.Reminder, error) {
	reminder, err := uc.repo.Reminder().Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrReminderNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get reminder", goerr.V(model.ReminderIDKey, id))
	}
	if reminder.OwnerID != owner {
		return nil, goerr.Wrap(ErrReminderNotFound, "reminder not found",
			goerr.V(model.ReminderIDKey, id), goerr.V(model.OwnerIDKey, owner))
	}
	return reminder, nil
}

// UpdateStatus moves a pending reminder to a terminal status
func (uc *ReminderUseCase) UpdateStatus(ctx context.Context, owner types.UserID, id model.ReminderID, status types.ReminderStatus) (*model.Reminder, error) {
	if !status.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid reminder status", goerr.V("status", status))
	}

	reminder, err := uc.GetReminder(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if !reminder.Status.CanTransitionTo(status) {
		return nil, goerr.Wrap(ErrInvalidTransition, "reminder status cannot change",
			goerr.V(model.ReminderIDKey, id),
			goerr.V("from", reminder.Status),
			goerr.V("to", status))
	}

	updated, err := uc.repo.Reminder().UpdateStatus(ctx, id, reminder.Status, status)
	if err != nil {
		if errors.Is(err, model.ErrStatusConflict) {
			return nil, goerr.Wrap(ErrInvalidTransition, "reminder status changed concurrently",
				goerr.V(model.ReminderIDKey, id), goerr.V("to", status))
		}
		return nil, goerr.Wrap(err, "failed to update reminder status", goerr.V(model.ReminderIDKey, id))
	}
	return updated, nil
}
