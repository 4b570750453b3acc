package usecase

import (
	"time"

	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/service/slack"
)

type UseCases struct {
	repo         interfaces.Repository
	genai        genai.Service
	slack        slack.Service
	slackChannel string
	cacheTTL     time.Duration
	stepDelay    time.Duration
	clock        func() time.Time
	Knowledge    *KnowledgeUseCase
	Reminder     *ReminderUseCase
	Notification *NotificationUseCase
	Scanner      *ScannerUseCase
	Auth         AuthUseCaseInterface
}

type Option func(*UseCases)

// WithGenAI enables the generative fallback of the knowledge resolver
func WithGenAI(svc genai.Service) Option {
	return func(uc *UseCases) {
		uc.genai = svc
	}
}

// WithSlack enables Slack delivery of reminder notifications to channelID
func WithSlack(svc slack.Service, channelID string) Option {
	return func(uc *UseCases) {
		uc.slack = svc
		uc.slackChannel = channelID
	}
}

// WithKnowledgeCacheTTL sets how long the knowledge context given to the generative
// backend is reused
func WithKnowledgeCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.cacheTTL = ttl
	}
}

// WithStepDelay sets the pause between streamed step events
func WithStepDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.stepDelay = d
	}
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		cacheTTL:  DefaultKnowledgeCacheTTL,
		stepDelay: DefaultStepDelay,
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Notification = NewNotificationUseCase(repo, uc.clock)
	uc.Reminder = NewReminderUseCase(repo)
	uc.Knowledge = NewKnowledgeUseCase(repo, uc.genai,
		WithContextCacheTTL(uc.cacheTTL),
		WithStreamStepDelay(uc.stepDelay),
	)
	uc.Scanner = NewScannerUseCase(repo, uc.Notification,
		WithScanClock(uc.clock),
		WithScanSlack(uc.slack, uc.slackChannel),
	)

	return uc
}
