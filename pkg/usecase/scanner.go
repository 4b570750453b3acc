package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/service/slack"
	"github.com/secmon-lab/contactbook/pkg/utils/errutil"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

const (
	// DefaultReminderLead is how far ahead of due_at a reminder becomes upcoming
	DefaultReminderLead = 10 * time.Minute

	reminderScanLockName = "reminder-scan"
	defaultScanLockTTL   = 5 * time.Minute
)

// ScanOption configures one scan. Zero values mean DefaultReminderLead and the clock.
type ScanOption struct {
	Lead time.Duration
	Now  time.Time
}

// ScanResult counts what happened to the reminders in the window
type ScanResult struct {
	// Created is the number of notifications written in this run
	Created int
	// Skipped reminders already had their upcoming notification
	Skipped int
	// Failed reminders could not be notified; they are retried by the next scan
	Failed int
	// Delivered notifications were also posted to Slack
	Delivered int
}

type ScannerUseCase struct {
	repo          interfaces.Repository
	notifications *NotificationUseCase
	slack         slack.Service
	slackChannel  string
	clock         func() time.Time
	holder        string
	lockTTL       time.Duration
}

type ScannerOption func(*ScannerUseCase)

func WithScanClock(clock func() time.Time) ScannerOption {
	return func(uc *ScannerUseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

// WithScanSlack posts upcoming notifications of slack-channel reminders to channelID
func WithScanSlack(svc slack.Service, channelID string) ScannerOption {
	return func(uc *ScannerUseCase) {
		uc.slack = svc
		uc.slackChannel = channelID
	}
}

// WithScanLockTTL bounds how long a crashed scan can hold the lease
func WithScanLockTTL(ttl time.Duration) ScannerOption {
	return func(uc *ScannerUseCase) {
		uc.lockTTL = ttl
	}
}

// WithScanHolder sets the prefix of the lease holder tokens
func WithScanHolder(holder string) ScannerOption {
	return func(uc *ScannerUseCase) {
		uc.holder = holder
	}
}

func NewScannerUseCase(repo interfaces.Repository, notifications *NotificationUseCase, opts ...ScannerOption) *ScannerUseCase {
	uc := &ScannerUseCase{
		repo:          repo,
		notifications: notifications,
		clock:         time.Now,
		holder:        "scanner-" + uuid.NewString(),
		lockTTL:       defaultScanLockTTL,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Scan creates one upcoming notification per pending reminder due in
// [now, now+lead]. It returns ErrScanInProgress without doing anything when another
// scan holds the lease.
func (uc *ScannerUseCase) Scan(ctx context.Context, opt ScanOption) (*ScanResult, error) {
	lead := opt.Lead
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	now := opt.Now
	if now.IsZero() {
		now = uc.clock()
	}
	now = now.UTC()

	// Every run takes the lease under its own token so that two runs sharing this
	// use case exclude each other as well.
	holder := uc.holder + "/" + uuid.NewString()
	acquired, err := uc.repo.Lock().TryAcquire(ctx, reminderScanLockName, holder, uc.lockTTL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to acquire scan lock")
	}
	if !acquired {
		return nil, goerr.Wrap(ErrScanInProgress, "another scan holds the lock", goerr.V("holder", holder))
	}
	defer func() {
		if err := uc.repo.Lock().Release(context.WithoutCancel(ctx), reminderScanLockName, holder); err != nil {
			errutil.Handle(ctx, err, "failed to release scan lock")
		}
	}()

	reminders, err := uc.repo.Reminder().ListDue(ctx, now, now.Add(lead))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list due reminders", goerr.V("now", now), goerr.V("lead", lead.String()))
	}

	result := &ScanResult{}
	for _, reminder := range reminders {
		if err := ctx.Err(); err != nil {
			return result, goerr.Wrap(err, "scan interrupted", goerr.V("created", result.Created))
		}

		created, err := uc.notifyUpcoming(ctx, reminder, now)
		if err != nil {
			result.Failed++
			errutil.Handle(ctx, err, "failed to notify upcoming reminder")
			continue
		}
		if created == nil {
			result.Skipped++
			continue
		}
		result.Created++

		if uc.deliver(ctx, reminder, created) {
			result.Delivered++
		}
	}

	logging.From(ctx).Info("reminder scan finished",
		"now", now,
		"lead", lead.String(),
		"due", len(reminders),
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"delivered", result.Delivered,
	)

	return result, nil
}

// notifyUpcoming returns nil without error when the notification already exists
func (uc *ScannerUseCase) notifyUpcoming(ctx context.Context, reminder *model.Reminder, now time.Time) (*model.UserNotification, error) {
	key := model.ReminderUpcomingKey(reminder)

	exists, err := uc.repo.Notification().Exists(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check existing notification", goerr.V(model.ReminderIDKey, reminder.ID))
	}
	if exists {
		return nil, nil
	}

	minutes := minutesLeft(*reminder.DueAt, now)
	scheduledAt := key.ScheduledAt

	created, err := uc.notifications.Log(ctx, &model.UserNotification{
		OwnerID: reminder.OwnerID,
		Type:    types.NotificationTypeReminderUpcoming,
		Title:   reminder.Title,
		Body:    upcomingBody(minutes),
		Data: map[string]any{
			"reminder_id":  reminder.ID.String(),
			"minutes_left": minutes,
		},
		ContactID:   reminder.ContactID,
		ReminderID:  reminder.ID,
		ScheduledAt: &scheduledAt,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to log upcoming notification", goerr.V(model.ReminderIDKey, reminder.ID))
	}
	return created, nil
}

func (uc *ScannerUseCase) deliver(ctx context.Context, reminder *model.Reminder, n *model.UserNotification) bool {
	if reminder.Channel != types.ReminderChannelSlack || uc.slack == nil || uc.slackChannel == "" {
		return false
	}

	if _, err := uc.slack.PostNotification(ctx, uc.slackChannel, n); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to deliver reminder to Slack",
			goerr.V(model.ReminderIDKey, reminder.ID)), "Slack delivery failed")
		return false
	}
	return true
}

// minutesLeft rounds up to whole minutes and never goes below zero
func minutesLeft(due, now time.Time) int {
	d := due.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds() / 60))
}

func upcomingBody(minutes int) string {
	if minutes == 0 {
		return "Due now"
	}
	return fmt.Sprintf("%d minute(s) left", minutes)
}
