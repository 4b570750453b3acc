package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// notificationDoc is the Firestore document representation of model.UserNotification
type notificationDoc struct {
	ID          string         `firestore:"ID"`
	OwnerID     string         `firestore:"OwnerID"`
	Type        string         `firestore:"Type"`
	Title       string         `firestore:"Title"`
	Body        string         `firestore:"Body"`
	Data        map[string]any `firestore:"Data"`
	ContactID   string         `firestore:"ContactID"`
	ReminderID  string         `firestore:"ReminderID"`
	Status      string         `firestore:"Status"`
	ScheduledAt *time.Time     `firestore:"ScheduledAt"`
	ReadAt      *time.Time     `firestore:"ReadAt"`
	CreatedAt   time.Time      `firestore:"CreatedAt"`
}

func toNotificationDoc(n *model.UserNotification) *notificationDoc {
	return &notificationDoc{
		ID:          string(n.ID),
		OwnerID:     string(n.OwnerID),
		Type:        string(n.Type),
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		ContactID:   n.ContactID,
		ReminderID:  string(n.ReminderID),
		Status:      string(n.Status),
		ScheduledAt: n.ScheduledAt,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func fromNotificationDoc(d *notificationDoc) *model.UserNotification {
	return &model.UserNotification{
		ID:          model.NotificationID(d.ID),
		OwnerID:     types.UserID(d.OwnerID),
		Type:        types.NotificationType(d.Type),
		Title:       d.Title,
		Body:        d.Body,
		Data:        d.Data,
		ContactID:   d.ContactID,
		ReminderID:  model.ReminderID(d.ReminderID),
		Status:      types.NotificationStatus(d.Status),
		ScheduledAt: d.ScheduledAt,
		ReadAt:      d.ReadAt,
		CreatedAt:   d.CreatedAt,
	}
}

type notificationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newNotificationRepository(client *firestore.Client) *notificationRepository {
	return &notificationRepository{
		client: client,
	}
}

func (r *notificationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, notificationsCollection))
}

// ownerQuery lists an owner's notifications newest first.
// Requires composite index: OwnerID ASC, CreatedAt DESC, ID DESC
func (r *notificationRepository) ownerQuery(owner types.UserID) firestore.Query {
	return r.collection().
		Where("OwnerID", "==", string(owner)).
		OrderBy("CreatedAt", firestore.Desc).
		OrderBy("ID", firestore.Desc)
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.UserNotification) (*model.UserNotification, error) {
	created := *notification
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

	if _, err := r.collection().Doc(string(created.ID)).Create(ctx, toNotificationDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create notification", goerr.V(model.OwnerIDKey, created.OwnerID))
	}
	return &created, nil
}

func (r *notificationRepository) Exists(ctx context.Context, key model.NotificationKey) (bool, error) {
	iter := r.collection().
		Where("OwnerID", "==", string(key.OwnerID)).
		Where("Type", "==", string(key.Type)).
		Where("ReminderID", "==", string(key.ReminderID)).
		Where("ScheduledAt", "==", key.ScheduledAt.UTC()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to look up notification",
			goerr.V(model.OwnerIDKey, key.OwnerID), goerr.V(model.ReminderIDKey, key.ReminderID))
	}
	return true, nil
}

func (r *notificationRepository) ListByOwner(ctx context.Context, owner types.UserID, limit int) ([]*model.UserNotification, error) {
	query := r.ownerQuery(owner)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.UserNotification, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate notifications", goerr.V(model.OwnerIDKey, owner))
		}

		var d notificationDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal notification", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, fromNotificationDoc(&d))
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, owner types.UserID) (int, error) {
	docs, err := r.collection().
		Where("OwnerID", "==", string(owner)).
		Where("Status", "==", string(types.NotificationStatusUnread)).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count unread notifications", goerr.V(model.OwnerIDKey, owner))
	}
	return len(docs), nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, owner types.UserID, id model.NotificationID, s types.NotificationStatus, readAt time.Time) (*model.UserNotification, error) {
	docRef := r.collection().Doc(string(id))

	var updated notificationDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "notification not found")
			}
			return goerr.Wrap(err, "failed to get notification")
		}
		if err := snap.DataTo(&updated); err != nil {
			return goerr.Wrap(err, "failed to unmarshal notification")
		}
		if updated.OwnerID != string(owner) {
			return goerr.Wrap(ErrNotFound, "notification not found")
		}

		updates := []firestore.Update{{Path: "Status", Value: string(s)}}
		updated.Status = string(s)
		if s == types.NotificationStatusRead {
			v := readAt.UTC()
			updates = append(updates, firestore.Update{Path: "ReadAt", Value: v})
			updated.ReadAt = &v
		}
		return tx.Update(docRef, updates)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update notification status",
			goerr.V(model.OwnerIDKey, owner), goerr.V("notification_id", id))
	}

	return fromNotificationDoc(&updated), nil
}

func (r *notificationRepository) Prune(ctx context.Context, owner types.UserID, keep int) (int, error) {
	iter := r.ownerQuery(owner).Offset(keep).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to iterate notifications for pruning", goerr.V(model.OwnerIDKey, owner))
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return 0, nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]writeJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bulkWriter.Delete(ref)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
		jobs = append(jobs, job)
	}
	bulkWriter.Flush()

	deleted, err := countWritten(jobs)
	if err != nil {
		return deleted, goerr.Wrap(err, "failed to prune notifications",
			goerr.V(model.OwnerIDKey, owner), goerr.V("deleted", deleted), goerr.V("expected", len(refs)))
	}
	return deleted, nil
}

// writeJob is the part of *firestore.BulkWriterJob read after Flush
type writeJob interface {
	Results() (*firestore.WriteResult, error)
}

// countWritten returns the number of successful jobs and the first failure
func countWritten(jobs []writeJob) (int, error) {
	var written int
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}
	if firstErr != nil {
		return written, goerr.Wrap(firstErr, "bulk write failed", goerr.V("failed", len(jobs)-written))
	}
	return written, nil
}
