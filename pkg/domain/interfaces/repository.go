package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Knowledge() KnowledgeRepository
	Reminder() ReminderRepository
	Notification() NotificationRepository
	Lock() LockRepository

	Close() error
}
