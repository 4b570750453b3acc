package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"gorm.io/gorm"
)

type reminderRow struct {
	ID        string     `gorm:"primaryKey"`
	OwnerID   string     `gorm:"index;not null"`
	ContactID string     `gorm:"not null;default:''"`
	Title     string     `gorm:"type:text;not null"`
	Note      string     `gorm:"type:text;not null;default:''"`
	DueAt     *time.Time `gorm:"type:timestamptz"`
	Status    string     `gorm:"not null"`
	Channel   string     `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (reminderRow) TableName() string {
	return "reminders"
}

func toReminderRow(r *model.Reminder) *reminderRow {
	return &reminderRow{
		ID:        string(r.ID),
		OwnerID:   string(r.OwnerID),
		ContactID: r.ContactID,
		Title:     r.Title,
		Note:      r.Note,
		DueAt:     utcPtr(r.DueAt),
		Status:    string(r.Status),
		Channel:   string(r.Channel),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromReminderRow(row *reminderRow) *model.Reminder {
	return &model.Reminder{
		ID:        model.ReminderID(row.ID),
		OwnerID:   types.UserID(row.OwnerID),
		ContactID: row.ContactID,
		Title:     row.Title,
		Note:      row.Note,
		DueAt:     utcPtr(row.DueAt),
		Status:    types.ReminderStatus(row.Status),
		Channel:   types.ReminderChannel(row.Channel),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

type reminderRepository struct {
	db *gorm.DB
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) (*model.Reminder, error) {
	now := time.Now().UTC()
	row := toReminderRow(reminder)
	if row.ID == "" {
		row.ID = string(model.NewReminderID())
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create reminder", goerr.V(model.ReminderIDKey, row.ID))
	}
	return fromReminderRow(row), nil
}

func (r *reminderRepository) Get(ctx context.Context, id model.ReminderID) (*model.Reminder, error) {
	var row reminderRow
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get reminder", goerr.V(model.ReminderIDKey, id))
	}
	return fromReminderRow(&row), nil
}

func (r *reminderRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Reminder, error) {
	var rows []reminderRow
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", string(owner)).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reminders", goerr.V(model.OwnerIDKey, owner))
	}
	return fromReminderRows(rows), nil
}

func (r *reminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*model.Reminder, error) {
	var rows []reminderRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at IS NOT NULL AND due_at >= ? AND due_at <= ?",
			string(types.ReminderStatusPending), from.UTC(), to.UTC()).
		Order("due_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list due reminders",
			goerr.V("from", from), goerr.V("to", to))
	}
	return fromReminderRows(rows), nil
}

func (r *reminderRepository) UpdateStatus(ctx context.Context, id model.ReminderID, from, to types.ReminderStatus) (*model.Reminder, error) {
	res := r.db.WithContext(ctx).Model(&reminderRow{}).
		Where("id = ? AND status = ?", string(id), string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, goerr.Wrap(res.Error, "failed to update reminder status", goerr.V(model.ReminderIDKey, id))
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or another request changed the status first
		current, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, goerr.Wrap(model.ErrStatusConflict, "reminder status has changed",
			goerr.V(model.ReminderIDKey, id), goerr.V("expected", from), goerr.V("actual", current.Status))
	}
	return r.Get(ctx, id)
}

func fromReminderRows(rows []reminderRow) []*model.Reminder {
	result := make([]*model.Reminder, len(rows))
	for i := range rows {
		result[i] = fromReminderRow(&rows[i])
	}
	return result
}
