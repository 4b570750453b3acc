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

type notificationRow struct {
	ID          string         `gorm:"primaryKey"`
	OwnerID     string         `gorm:"not null"`
	Type        string         `gorm:"not null"`
	Title       string         `gorm:"type:text;not null"`
	Body        string         `gorm:"type:text;not null;default:''"`
	Data        map[string]any `gorm:"type:jsonb;serializer:json"`
	ContactID   string         `gorm:"not null;default:''"`
	ReminderID  string         `gorm:"not null;default:''"`
	Status      string         `gorm:"not null"`
	ScheduledAt *time.Time     `gorm:"type:timestamptz"`
	ReadAt      *time.Time     `gorm:"type:timestamptz"`
	CreatedAt   time.Time      `gorm:"not null"`
}

func (notificationRow) TableName() string {
	return "user_notifications"
}

func toNotificationRow(n *model.UserNotification) *notificationRow {
	return &notificationRow{
		ID:          string(n.ID),
		OwnerID:     string(n.OwnerID),
		Type:        string(n.Type),
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		ContactID:   n.ContactID,
		ReminderID:  string(n.ReminderID),
		Status:      string(n.Status),
		ScheduledAt: utcPtr(n.ScheduledAt),
		ReadAt:      utcPtr(n.ReadAt),
		CreatedAt:   n.CreatedAt,
	}
}

func fromNotificationRow(row *notificationRow) *model.UserNotification {
	return &model.UserNotification{
		ID:          model.NotificationID(row.ID),
		OwnerID:     types.UserID(row.OwnerID),
		Type:        types.NotificationType(row.Type),
		Title:       row.Title,
		Body:        row.Body,
		Data:        row.Data,
		ContactID:   row.ContactID,
		ReminderID:  model.ReminderID(row.ReminderID),
		Status:      types.NotificationStatus(row.Status),
		ScheduledAt: utcPtr(row.ScheduledAt),
		ReadAt:      utcPtr(row.ReadAt),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.UserNotification) (*model.UserNotification, error) {
	row := toNotificationRow(notification)
	if row.ID == "" {
		row.ID = string(model.NewNotificationID())
	}
	if row.Status == "" {
		row.Status = string(types.NotificationStatusUnread)
	}
	row.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create notification",
			goerr.V(model.OwnerIDKey, row.OwnerID), goerr.V("notification_id", row.ID))
	}
	return fromNotificationRow(row), nil
}

func (r *notificationRepository) Exists(ctx context.Context, key model.NotificationKey) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("owner_id = ? AND type = ? AND reminder_id = ? AND scheduled_at = ?",
			string(key.OwnerID), string(key.Type), string(key.ReminderID), key.ScheduledAt.UTC()).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, goerr.Wrap(err, "failed to look up notification",
			goerr.V(model.OwnerIDKey, key.OwnerID), goerr.V(model.ReminderIDKey, key.ReminderID))
	}
	return count > 0, nil
}

func (r *notificationRepository) ListByOwner(ctx context.Context, owner types.UserID, limit int) ([]*model.UserNotification, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", string(owner)).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []notificationRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list notifications", goerr.V(model.OwnerIDKey, owner))
	}

	result := make([]*model.UserNotification, len(rows))
	for i := range rows {
		result[i] = fromNotificationRow(&rows[i])
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, owner types.UserID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("owner_id = ? AND status = ?", string(owner), string(types.NotificationStatusUnread)).
		Count(&count).Error
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count unread notifications", goerr.V(model.OwnerIDKey, owner))
	}
	return int(count), nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, owner types.UserID, id model.NotificationID, status types.NotificationStatus, readAt time.Time) (*model.UserNotification, error) {
	updates := map[string]any{"status": string(status)}
	if status == types.NotificationStatusRead {
		updates["read_at"] = readAt.UTC()
	}

	res := r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("id = ? AND owner_id = ?", string(id), string(owner)).
		Updates(updates)
	if res.Error != nil {
		return nil, goerr.Wrap(res.Error, "failed to update notification status",
			goerr.V(model.OwnerIDKey, owner), goerr.V("notification_id", id))
	}
	if res.RowsAffected == 0 {
		return nil, goerr.Wrap(ErrNotFound, "notification not found",
			goerr.V(model.OwnerIDKey, owner), goerr.V("notification_id", id))
	}

	var row notificationRow
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "notification not found", goerr.V("notification_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get notification", goerr.V("notification_id", id))
	}
	return fromNotificationRow(&row), nil
}

func (r *notificationRepository) Prune(ctx context.Context, owner types.UserID, keep int) (int, error) {
	res := r.db.WithContext(ctx).Exec(`
delete from user_notifications
where owner_id = ?
  and id not in (
    select id from user_notifications
    where owner_id = ?
    order by created_at desc, id desc
    limit ?
  )`, string(owner), string(owner), keep)
	if res.Error != nil {
		return 0, goerr.Wrap(res.Error, "failed to prune notifications",
			goerr.V(model.OwnerIDKey, owner), goerr.V("keep", keep))
	}
	return int(res.RowsAffected), nil
}
