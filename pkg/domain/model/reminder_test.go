package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

func TestReminder_IsDueWithin(t *testing.T) {
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(10 * time.Minute)

	at := func(d time.Duration) *time.Time {
		v := from.Add(d)
		return &v
	}

	tests := []struct {
		name   string
		due    *time.Time
		status types.ReminderStatus
		want   bool
	}{
		{name: "inside window", due: at(5 * time.Minute), status: types.ReminderStatusPending, want: true},
		{name: "window start is inclusive", due: at(0), status: types.ReminderStatusPending, want: true},
		{name: "window end is inclusive", due: at(10 * time.Minute), status: types.ReminderStatusPending, want: true},
		{name: "before window", due: at(-time.Second), status: types.ReminderStatusPending, want: false},
		{name: "after window", due: at(10*time.Minute + time.Second), status: types.ReminderStatusPending, want: false},
		{name: "no due date", due: nil, status: types.ReminderStatusPending, want: false},
		{name: "not pending", due: at(5 * time.Minute), status: types.ReminderStatusDone, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &model.Reminder{DueAt: tt.due, Status: tt.status}
			gt.Value(t, r.IsDueWithin(from, to)).Equal(tt.want)
		})
	}
}

func TestReminderUpcomingKey(t *testing.T) {
	due := time.Date(2024, 1, 1, 10, 5, 0, 0, time.FixedZone("ICT", 7*60*60))
	r := &model.Reminder{ID: "r-1", OwnerID: "u-1", DueAt: &due}

	key := model.ReminderUpcomingKey(r)
	gt.Value(t, key.Type).Equal(types.NotificationTypeReminderUpcoming)
	gt.Bool(t, key.ScheduledAt.Equal(due)).True()

	scheduled := due.UTC()
	n := &model.UserNotification{
		OwnerID:     "u-1",
		Type:        types.NotificationTypeReminderUpcoming,
		ReminderID:  "r-1",
		ScheduledAt: &scheduled,
	}
	gt.Bool(t, n.Matches(key)).True()

	other := due.Add(time.Minute)
	n.ScheduledAt = &other
	gt.Bool(t, n.Matches(key)).False()
}

func TestQuestion_Validate(t *testing.T) {
	q := &model.Question{Text: "how to add contact", Platform: types.PlatformWeb, Locale: types.LocaleEN}
	gt.NoError(t, q.Validate())

	long := make([]rune, model.MaxQuestionLength+1)
	for i := range long {
		long[i] = 'ệ'
	}
	gt.Error(t, (&model.Question{Text: string(long), Platform: types.PlatformWeb, Locale: types.LocaleEN}).Validate())
	gt.Error(t, (&model.Question{Text: "", Platform: types.PlatformWeb, Locale: types.LocaleEN}).Validate())
	gt.Error(t, (&model.Question{Text: "hi", Platform: types.PlatformAll, Locale: types.LocaleEN}).Validate())
	gt.Error(t, (&model.Question{Text: "hi", Platform: types.PlatformWeb, Locale: "fr"}).Validate())
}
