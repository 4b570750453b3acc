package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/errutil"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

// Scanner runs one reminder scan
type Scanner interface {
	Scan(ctx context.Context, opt usecase.ScanOption) (*usecase.ScanResult, error)
}

// ReminderScanWorker runs the reminder scanner on a fixed interval. Several
// processes may run it against the same backend; the scan lease lets one of them
// work per tick and the others skip.
type ReminderScanWorker struct {
	scanner  Scanner
	interval time.Duration
	lead     time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

type Option func(*ReminderScanWorker)

// WithLead overrides usecase.DefaultReminderLead
func WithLead(lead time.Duration) Option {
	return func(w *ReminderScanWorker) {
		w.lead = lead
	}
}

// NewReminderScanWorker creates a worker. An interval of zero or less disables it.
func NewReminderScanWorker(scanner Scanner, interval time.Duration, opts ...Option) *ReminderScanWorker {
	w := &ReminderScanWorker{
		scanner:  scanner,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the scan loop in the background. The first scan runs immediately.
func (w *ReminderScanWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		logging.Default().Info("Reminder scan worker disabled")
		close(w.doneCh)
		return nil
	}

	logging.Default().Info("Reminder scan worker starting",
		"interval", w.interval.String(),
		"lead", w.lead.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the running scan to finish
func (w *ReminderScanWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Reminder scan worker stopping")
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("Reminder scan worker stopped")
}

func (w *ReminderScanWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.scan(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.scan(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Reminder scan worker context cancelled")
			return
		}
	}
}

// scan runs one cycle. Failures are reported and retried on the next tick.
func (w *ReminderScanWorker) scan(ctx context.Context) {
	_, err := w.scanner.Scan(ctx, usecase.ScanOption{Lead: w.lead})
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrScanInProgress):
		logging.Default().Debug("Reminder scan skipped, another scan holds the lock")
	case errors.Is(err, context.Canceled):
	default:
		errutil.Handle(ctx, err, "reminder scan failed (will retry next interval)")
	}
}
