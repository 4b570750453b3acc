package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/utils/errutil"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

const (
	// DefaultStepDelay separates step events of a streamed knowledge answer
	DefaultStepDelay = 300 * time.Millisecond

	DefaultTopLimit = 5
	MaxTopLimit     = 20

	// MinSearchQueryLength is the minimum number of characters of a trimmed search query
	MinSearchQueryLength = 2
	maxSearchResults     = 20
)

// KnowledgeUseCase serves the help center: browsing, search, question resolution and
// the seed import
type KnowledgeUseCase struct {
	repo      interfaces.Repository
	genai     genai.Service
	cacheTTL  time.Duration
	stepDelay time.Duration
	cache     *knowledgeContextCache
}

type KnowledgeOption func(*KnowledgeUseCase)

func WithContextCacheTTL(ttl time.Duration) KnowledgeOption {
	return func(uc *KnowledgeUseCase) {
		uc.cacheTTL = ttl
	}
}

func WithStreamStepDelay(d time.Duration) KnowledgeOption {
	return func(uc *KnowledgeUseCase) {
		uc.stepDelay = d
	}
}

// NewKnowledgeUseCase creates the use case. gen may be nil, in which case questions
// without a matching entry fail with ErrGenerationFailed.
func NewKnowledgeUseCase(repo interfaces.Repository, gen genai.Service, opts ...KnowledgeOption) *KnowledgeUseCase {
	uc := &KnowledgeUseCase{
		repo:      repo,
		genai:     gen,
		cacheTTL:  DefaultKnowledgeCacheTTL,
		stepDelay: DefaultStepDelay,
	}
	for _, opt := range opts {
		opt(uc)
	}
	uc.cache = newKnowledgeContextCache(uc.cacheTTL, uc.loadContext)
	return uc
}

// KnowledgeFilter selects entries for the browsing operations. An empty Platform
// does not filter; an empty Locale means the default locale.
type KnowledgeFilter struct {
	Locale   types.Locale
	Platform types.Platform
}

func (f KnowledgeFilter) resolve() (interfaces.KnowledgeFilter, error) {
	locale := f.Locale
	if locale == "" {
		locale = types.DefaultLocale
	}
	if !locale.IsValid() {
		return interfaces.KnowledgeFilter{}, goerr.Wrap(ErrInvalidInput, "invalid locale", goerr.V(LocaleKey, f.Locale))
	}
	if f.Platform != "" && !f.Platform.IsClient() {
		return interfaces.KnowledgeFilter{}, goerr.Wrap(ErrInvalidInput, "platform must be web or mobile", goerr.V(PlatformKey, f.Platform))
	}
	return interfaces.KnowledgeFilter{Locale: locale, Platform: f.Platform}, nil
}

// StepCounts is the number of steps a client sees on each platform
type StepCounts struct {
	Web    int
	Mobile int
}

// KnowledgeSummary is an entry as shown in lists
type KnowledgeSummary struct {
	Key        model.KnowledgeKey
	Title      string
	Category   string
	Platform   types.Platform
	Priority   int
	ViewCount  int64
	StepCounts StepCounts
}

func newKnowledgeSummary(e *model.KnowledgeEntry) *KnowledgeSummary {
	return &KnowledgeSummary{
		Key:       e.Key,
		Title:     e.Title,
		Category:  e.Category,
		Platform:  e.Platform,
		Priority:  e.Priority,
		ViewCount: e.ViewCount,
		StepCounts: StepCounts{
			Web:    len(e.Content.Steps.For(types.PlatformWeb)),
			Mobile: len(e.Content.Steps.For(types.PlatformMobile)),
		},
	}
}

// SearchHit is one result of Search
type SearchHit struct {
	Key      model.KnowledgeKey
	Title    string
	Category string
}

func (uc *KnowledgeUseCase) list(ctx context.Context, filter interfaces.KnowledgeFilter) ([]*model.KnowledgeEntry, error) {
	entries, err := uc.repo.Knowledge().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge entries",
			goerr.V(LocaleKey, filter.Locale), goerr.V(PlatformKey, filter.Platform), goerr.V("category", filter.Category))
	}
	return entries, nil
}

// Categories returns the distinct categories visible under filter, sorted
func (uc *KnowledgeUseCase) Categories(ctx context.Context, filter KnowledgeFilter) ([]string, error) {
	f, err := filter.resolve()
	if err != nil {
		return nil, err
	}
	entries, err := uc.list(ctx, f)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		categories = append(categories, e.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// ListByCategory returns the entries of category, highest priority first
func (uc *KnowledgeUseCase) ListByCategory(ctx context.Context, filter KnowledgeFilter, category string) ([]*KnowledgeSummary, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "category is required")
	}
	f, err := filter.resolve()
	if err != nil {
		return nil, err
	}
	f.Category = category

	entries, err := uc.list(ctx, f)
	if err != nil {
		return nil, err
	}
	rankEntries(entries)

	summaries := make([]*KnowledgeSummary, len(entries))
	for i, e := range entries {
		summaries[i] = newKnowledgeSummary(e)
	}
	return summaries, nil
}

// Top returns the most viewed entries, priority breaking ties
func (uc *KnowledgeUseCase) Top(ctx context.Context, filter KnowledgeFilter, limit int) ([]*KnowledgeSummary, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	f, err := filter.resolve()
	if err != nil {
		return nil, err
	}

	entries, err := uc.list(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Key < b.Key
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	summaries := make([]*KnowledgeSummary, len(entries))
	for i, e := range entries {
		summaries[i] = newKnowledgeSummary(e)
	}
	return summaries, nil
}

// Search matches query as a substring of titles and searchable text
func (uc *KnowledgeUseCase) Search(ctx context.Context, filter KnowledgeFilter, query string) ([]*SearchHit, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return nil, goerr.Wrap(ErrQueryTooShort, "search query is too short",
			goerr.V("min", MinSearchQueryLength), goerr.V("query", query))
	}
	f, err := filter.resolve()
	if err != nil {
		return nil, err
	}

	entries, err := uc.list(ctx, f)
	if err != nil {
		return nil, err
	}
	rankEntries(entries)

	hits := make([]*SearchHit, 0)
	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.SearchableText), query) {
			continue
		}
		hits = append(hits, &SearchHit{Key: e.Key, Title: e.Title, Category: e.Category})
		if len(hits) == maxSearchResults {
			break
		}
	}
	return hits, nil
}

// GetAnswer returns the full answer of the entry for platform and counts the read
func (uc *KnowledgeUseCase) GetAnswer(ctx context.Context, key model.KnowledgeKey, platform types.Platform) (*model.Answer, error) {
	if platform == "" {
		platform = types.PlatformWeb
	}
	if !platform.IsClient() {
		return nil, goerr.Wrap(ErrInvalidInput, "platform must be web or mobile", goerr.V(PlatformKey, platform))
	}

	entry, err := uc.repo.Knowledge().Get(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrKnowledgeNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	if !entry.IsActive || entry.Deleted {
		return nil, goerr.Wrap(ErrKnowledgeNotFound, "knowledge entry is not available", goerr.V(model.KnowledgeKeyKey, key))
	}

	answer := model.NewKnowledgeAnswer(entry, platform, uc.relatedArticles(ctx, entry))
	uc.countView(ctx, entry.Key)
	return answer, nil
}

// relatedArticles resolves the weak related_keys of entry. Missing, inactive and
// other-locale targets are left out.
func (uc *KnowledgeUseCase) relatedArticles(ctx context.Context, entry *model.KnowledgeEntry) []model.RelatedArticle {
	related := make([]model.RelatedArticle, 0, len(entry.RelatedKeys))
	for _, key := range entry.RelatedKeys {
		target, err := uc.repo.Knowledge().Get(ctx, key)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				logging.From(ctx).Warn("failed to resolve related article",
					"knowledge_key", entry.Key, "related_key", key, logging.ErrAttr(err))
			}
			continue
		}
		if !target.IsActive || target.Deleted || target.Locale != entry.Locale {
			continue
		}
		related = append(related, model.RelatedArticle{
			Key:      target.Key,
			Title:    target.Title,
			Category: target.Category,
		})
	}
	return related
}

func (uc *KnowledgeUseCase) countView(ctx context.Context, key model.KnowledgeKey) {
	if err := uc.repo.Knowledge().IncrementViewCount(ctx, key); err != nil {
		errutil.Handle(ctx, err, "failed to increment view count")
	}
}

// ValidateEntries normalizes and checks entries as Import would, without writing
func (uc *KnowledgeUseCase) ValidateEntries(entries []*model.KnowledgeEntry) error {
	seen := make(map[model.KnowledgeKey]int, len(entries))
	for i, e := range entries {
		e.Normalize()
		if err := e.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidInput, err.Error(), goerr.V("index", i))
		}
		if prev, ok := seen[e.Key]; ok {
			return goerr.Wrap(ErrInvalidInput, "duplicate knowledge key",
				goerr.V(model.KnowledgeKeyKey, e.Key), goerr.V("index", i), goerr.V("previous_index", prev))
		}
		seen[e.Key] = i
	}
	return nil
}

// Import validates every entry, then upserts them by key and drops the cached
// generation context. Nothing is written when any entry is invalid.
func (uc *KnowledgeUseCase) Import(ctx context.Context, entries []*model.KnowledgeEntry) (int, error) {
	if err := uc.ValidateEntries(entries); err != nil {
		return 0, err
	}

	defer uc.InvalidateContext()

	for i, e := range entries {
		if _, err := uc.repo.Knowledge().Upsert(ctx, e); err != nil {
			return i, goerr.Wrap(err, "failed to upsert knowledge entry",
				goerr.V(model.KnowledgeKeyKey, e.Key), goerr.V("imported", i))
		}
	}

	logging.From(ctx).Info("knowledge imported", "count", len(entries))
	return len(entries), nil
}

// Delete soft-deletes the entry. It stops matching, listing and appearing as a related
// article, and the next generative answer no longer sees it.
func (uc *KnowledgeUseCase) Delete(ctx context.Context, key model.KnowledgeKey) error {
	key = model.KnowledgeKey(strings.TrimSpace(string(key)))
	if key == "" {
		return goerr.Wrap(ErrInvalidInput, "knowledge key is required")
	}

	if err := uc.repo.Knowledge().Delete(ctx, key); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return goerr.Wrap(ErrKnowledgeNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return goerr.Wrap(err, "failed to delete knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	uc.InvalidateContext()

	logging.From(ctx).Info("knowledge deleted", model.KnowledgeKeyKey, key)
	return nil
}

// InvalidateContext forces the next generative answer to reload the article list
func (uc *KnowledgeUseCase) InvalidateContext() {
	uc.cache.invalidate()
}

func (uc *KnowledgeUseCase) loadContext(ctx context.Context, key contextKey) ([]genai.ArticleRef, error) {
	entries, err := uc.list(ctx, interfaces.KnowledgeFilter{Locale: key.locale, Platform: key.platform})
	if err != nil {
		return nil, err
	}
	rankEntries(entries)
	if len(entries) > maxContextArticles {
		entries = entries[:maxContextArticles]
	}

	articles := make([]genai.ArticleRef, len(entries))
	for i, e := range entries {
		articles[i] = genai.ArticleRef{Key: e.Key, Title: e.Title, Category: e.Category}
	}
	return articles, nil
}

// rankEntries orders by priority, then view count, both descending. Key keeps the
// order stable.
func rankEntries(entries []*model.KnowledgeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		return a.Key < b.Key
	})
}
