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

// reminderDoc is the Firestore document representation of model.Reminder
type reminderDoc struct {
	ID        string     `firestore:"ID"`
	OwnerID   string     `firestore:"OwnerID"`
	ContactID string     `firestore:"ContactID"`
	Title     string     `firestore:"Title"`
	Note      string     `firestore:"Note"`
	DueAt     *time.Time `firestore:"DueAt"`
	Status    string     `firestore:"Status"`
	Channel   string     `firestore:"Channel"`
	CreatedAt time.Time  `firestore:"CreatedAt"`
	UpdatedAt time.Time  `firestore:"UpdatedAt"`
}

func toReminderDoc(r *model.Reminder) *reminderDoc {
	return &reminderDoc{
		ID:        string(r.ID),
		OwnerID:   string(r.OwnerID),
		ContactID: r.ContactID,
		Title:     r.Title,
		Note:      r.Note,
		DueAt:     r.DueAt,
		Status:    string(r.Status),
		Channel:   string(r.Channel),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromReminderDoc(d *reminderDoc) *model.Reminder {
	return &model.Reminder{
		ID:        model.ReminderID(d.ID),
		OwnerID:   types.UserID(d.OwnerID),
		ContactID: d.ContactID,
		Title:     d.Title,
		Note:      d.Note,
		DueAt:     d.DueAt,
		Status:    types.ReminderStatus(d.Status),
		Channel:   types.ReminderChannel(d.Channel),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type reminderRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReminderRepository(client *firestore.Client) *reminderRepository {
	return &reminderRepository{
		client: client,
	}
}

func (r *reminderRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, remindersCollection))
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) (*model.Reminder, error) {
	created := *reminder
	if created.ID == "" {
		created.ID = model.NewReminderID()
	}
	if created.DueAt != nil {
		due := created.DueAt.UTC()
		created.DueAt = &due
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(string(created.ID)).Create(ctx, toReminderDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create reminder", goerr.V(model.ReminderIDKey, created.ID))
	}

	return &created, nil
}

func (r *reminderRepository) Get(ctx context.Context, id model.ReminderID) (*model.Reminder, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get reminder", goerr.V(model.ReminderIDKey, id))
	}

	var d reminderDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal reminder", goerr.V(model.ReminderIDKey, id))
	}
	return fromReminderDoc(&d), nil
}

func (r *reminderRepository) list(ctx context.Context, query firestore.Query) ([]*model.Reminder, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Reminder, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate reminders")
		}

		var d reminderDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal reminder", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, fromReminderDoc(&d))
	}
	return result, nil
}

func (r *reminderRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Reminder, error) {
	query := r.collection().
		Where("OwnerID", "==", string(owner)).
		OrderBy("CreatedAt", firestore.Desc)

	reminders, err := r.list(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reminders", goerr.V(model.OwnerIDKey, owner))
	}
	return reminders, nil
}

func (r *reminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*model.Reminder, error) {
	// Requires composite index: Status ASC, DueAt ASC
	query := r.collection().
		Where("Status", "==", string(types.ReminderStatusPending)).
		Where("DueAt", ">=", from.UTC()).
		Where("DueAt", "<=", to.UTC()).
		OrderBy("DueAt", firestore.Asc)

	reminders, err := r.list(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list due reminders",
			goerr.V("from", from), goerr.V("to", to))
	}
	return reminders, nil
}

func (r *reminderRepository) UpdateStatus(ctx context.Context, id model.ReminderID, from, to types.ReminderStatus) (*model.Reminder, error) {
	docRef := r.collection().Doc(string(id))

	var updated *model.Reminder
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "reminder not found", goerr.V(model.ReminderIDKey, id))
			}
			return goerr.Wrap(err, "failed to get reminder", goerr.V(model.ReminderIDKey, id))
		}

		var doc reminderDoc
		if err := snap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal reminder", goerr.V(model.ReminderIDKey, id))
		}
		if types.ReminderStatus(doc.Status) != from {
			return goerr.Wrap(model.ErrStatusConflict, "reminder status has changed",
				goerr.V(model.ReminderIDKey, id), goerr.V("expected", from), goerr.V("actual", doc.Status))
		}

		doc.Status = string(to)
		doc.UpdatedAt = time.Now().UTC()
		updated = fromReminderDoc(&doc)
		return tx.Update(docRef, []firestore.Update{
			{Path: "Status", Value: doc.Status},
			{Path: "UpdatedAt", Value: doc.UpdatedAt},
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update reminder status", goerr.V(model.ReminderIDKey, id))
	}

	return updated, nil
}
