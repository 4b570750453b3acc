package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

func TestReminderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from types.ReminderStatus
		to   types.ReminderStatus
		want bool
	}{
		{name: "pending to done", from: types.ReminderStatusPending, to: types.ReminderStatusDone, want: true},
		{name: "pending to skipped", from: types.ReminderStatusPending, to: types.ReminderStatusSkipped, want: true},
		{name: "pending to cancelled", from: types.ReminderStatusPending, to: types.ReminderStatusCancelled, want: true},
		{name: "pending to pending", from: types.ReminderStatusPending, to: types.ReminderStatusPending, want: false},
		{name: "done is terminal", from: types.ReminderStatusDone, to: types.ReminderStatusCancelled, want: false},
		{name: "cancelled is terminal", from: types.ReminderStatusCancelled, to: types.ReminderStatusPending, want: false},
		{name: "invalid target", from: types.ReminderStatusPending, to: types.ReminderStatus("paused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.from.CanTransitionTo(tt.to)).Equal(tt.want)
		})
	}
}

func TestParseReminderStatus(t *testing.T) {
	for _, s := range types.AllReminderStatuses() {
		parsed, err := types.ParseReminderStatus(s.String())
		gt.NoError(t, err)
		gt.Value(t, parsed).Equal(s)
	}

	_, err := types.ParseReminderStatus("")
	gt.Error(t, err)
}

func TestParseReminderChannel(t *testing.T) {
	c, err := types.ParseReminderChannel("")
	gt.NoError(t, err)
	gt.Value(t, c).Equal(types.ReminderChannelInApp)

	c, err = types.ParseReminderChannel("slack")
	gt.NoError(t, err)
	gt.Value(t, c).Equal(types.ReminderChannelSlack)

	_, err = types.ParseReminderChannel("sms")
	gt.Error(t, err)
}
