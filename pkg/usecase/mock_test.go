package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
)

type postedNotification struct {
	channelID    string
	notification *model.UserNotification
}

type mockSlack struct {
	mu     sync.Mutex
	posted []postedNotification
	err    error
}

func (m *mockSlack) PostNotification(ctx context.Context, channelID string, n *model.UserNotification) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.posted = append(m.posted, postedNotification{channelID: channelID, notification: n})
	return "1700000000.000100", nil
}

type mockGenAI struct {
	mu        sync.Mutex
	requests  []genai.Request
	result    *genai.Result
	err       error
	chunks    []genai.Chunk
	streamErr error
}

func (m *mockGenAI) Generate(ctx context.Context, req genai.Request) (*genai.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockGenAI) Stream(ctx context.Context, req genai.Request) (<-chan genai.Chunk, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	ch := make(chan genai.Chunk, len(m.chunks))
	for _, c := range m.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (m *mockGenAI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// failingRepository injects failures into the notification store of a memory repository
type failingRepository struct {
	*memory.Memory
	notification *failingNotificationRepository
}

func newFailingRepository(failFor model.ReminderID) *failingRepository {
	mem := memory.New()
	return &failingRepository{
		Memory: mem,
		notification: &failingNotificationRepository{
			NotificationRepository: mem.Notification(),
			failFor:                failFor,
		},
	}
}

func (r *failingRepository) Notification() interfaces.NotificationRepository {
	return r.notification
}

type failingNotificationRepository struct {
	interfaces.NotificationRepository
	failFor model.ReminderID
}

func (r *failingNotificationRepository) Create(ctx context.Context, n *model.UserNotification) (*model.UserNotification, error) {
	if n.ReminderID == r.failFor {
		return nil, goerr.New("injected create failure")
	}
	return r.NotificationRepository.Create(ctx, n)
}

// recordingEmitter collects stream events and can fail after a number of events
type recordingEmitter struct {
	events    []*model.StreamEvent
	failAfter int
}

func (e *recordingEmitter) Emit(ctx context.Context, event *model.StreamEvent) error {
	if e.failAfter > 0 && len(e.events) >= e.failAfter {
		return goerr.New("client went away")
	}
	e.events = append(e.events, event)
	return nil
}

// blockingRepository holds ListDue until release is closed, keeping a scan in progress
type blockingRepository struct {
	*memory.Memory
	reminder *blockingReminderRepository
}

func newBlockingRepository() *blockingRepository {
	mem := memory.New()
	return &blockingRepository{
		Memory: mem,
		reminder: &blockingReminderRepository{
			ReminderRepository: mem.Reminder(),
			entered:            make(chan struct{}),
			release:            make(chan struct{}),
		},
	}
}

func (r *blockingRepository) Reminder() interfaces.ReminderRepository {
	return r.reminder
}

type blockingReminderRepository struct {
	interfaces.ReminderRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*model.Reminder, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	return r.ReminderRepository.ListDue(ctx, from, to)
}

// racingRepository lets another writer cancel a reminder right after it has been read
type racingRepository struct {
	*memory.Memory
	reminder *racingReminderRepository
}

func newRacingRepository() *racingRepository {
	mem := memory.New()
	return &racingRepository{
		Memory:   mem,
		reminder: &racingReminderRepository{ReminderRepository: mem.Reminder()},
	}
}

func (r *racingRepository) Reminder() interfaces.ReminderRepository {
	return r.reminder
}

type racingReminderRepository struct {
	interfaces.ReminderRepository
}

func (r *racingReminderRepository) Get(ctx context.Context, id model.ReminderID) (*model.Reminder, error) {
	reminder, err := r.ReminderRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if reminder.Status == types.ReminderStatusPending {
		if _, err := r.ReminderRepository.UpdateStatus(ctx, id, types.ReminderStatusPending, types.ReminderStatusCancelled); err != nil {
			return nil, err
		}
	}
	return reminder, nil
}
