package memory

import (
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
)

// Memory keeps every aggregate in process memory. It backs tests and local development.
type Memory struct {
	knowledge    *knowledgeRepository
	reminder     *reminderRepository
	notification *notificationRepository
	lock         *lockRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		knowledge:    newKnowledgeRepository(),
		reminder:     newReminderRepository(),
		notification: newNotificationRepository(),
		lock:         newLockRepository(),
	}
}

func (m *Memory) Knowledge() interfaces.KnowledgeRepository {
	return m.knowledge
}

func (m *Memory) Reminder() interfaces.ReminderRepository {
	return m.reminder
}

func (m *Memory) Notification() interfaces.NotificationRepository {
	return m.notification
}

func (m *Memory) Lock() interfaces.LockRepository {
	return m.lock
}

func (m *Memory) Close() error {
	return nil
}
