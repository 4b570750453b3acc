package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
)

const (
	knowledgeEntriesCollection = "knowledge_entries"
	remindersCollection        = "reminders"
	notificationsCollection    = "notifications"
	locksCollection            = "locks"
)

type Firestore struct {
	client       *firestore.Client
	knowledge    *knowledgeRepository
	reminder     *reminderRepository
	notification *notificationRepository
	lock         *lockRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix to every collection name, e.g. for test isolation
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.knowledge.collectionPrefix = prefix
		f.reminder.collectionPrefix = prefix
		f.notification.collectionPrefix = prefix
		f.lock.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:       client,
		knowledge:    newKnowledgeRepository(client),
		reminder:     newReminderRepository(client),
		notification: newNotificationRepository(client),
		lock:         newLockRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + name
	}
	return name
}

func (f *Firestore) Knowledge() interfaces.KnowledgeRepository {
	return f.knowledge
}

func (f *Firestore) Reminder() interfaces.ReminderRepository {
	return f.reminder
}

func (f *Firestore) Notification() interfaces.NotificationRepository {
	return f.notification
}

func (f *Firestore) Lock() interfaces.LockRepository {
	return f.lock
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
