package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Postgres struct {
	db           *gorm.DB
	knowledge    *knowledgeRepository
	reminder     *reminderRepository
	notification *notificationRepository
	lock         *lockRepository
}

var _ interfaces.Repository = &Postgres{}

// New connects to dsn and brings the schema up to date
func New(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	if err := migrate(db.WithContext(ctx)); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate postgres schema")
	}

	return &Postgres{
		db:           db,
		knowledge:    &knowledgeRepository{db: db},
		reminder:     &reminderRepository{db: db},
		notification: &notificationRepository{db: db},
		lock:         &lockRepository{db: db},
	}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&knowledgeEntryRow{},
		&reminderRow{},
		&notificationRow{},
		&leaseRow{},
	); err != nil {
		return goerr.Wrap(err, "failed to auto migrate tables")
	}

	stmts := []string{
		// At most one upcoming notification per reminder and due time
		`create unique index if not exists uq_notifications_reminder_upcoming
on user_notifications(owner_id, reminder_id, scheduled_at)
where type = 'reminder.upcoming';`,
		`create index if not exists idx_notifications_owner_created on user_notifications(owner_id, created_at desc, id desc);`,
		`create index if not exists idx_reminders_due on reminders(status, due_at);`,
		`create index if not exists idx_knowledge_filter on knowledge_entries(locale, platform, is_active, deleted);`,
		`create index if not exists idx_knowledge_keywords on knowledge_entries using gin (keywords);`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return goerr.Wrap(err, "index exec failed", goerr.V("sql", s))
		}
	}

	return nil
}

func (p *Postgres) Knowledge() interfaces.KnowledgeRepository {
	return p.knowledge
}

func (p *Postgres) Reminder() interfaces.ReminderRepository {
	return p.reminder
}

func (p *Postgres) Notification() interfaces.NotificationRepository {
	return p.notification
}

func (p *Postgres) Lock() interfaces.LockRepository {
	return p.lock
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}
