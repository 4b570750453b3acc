package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
)

type knowledgeRepository struct {
	mu      sync.RWMutex
	entries map[model.KnowledgeKey]*model.KnowledgeEntry
}

func newKnowledgeRepository() *knowledgeRepository {
	return &knowledgeRepository{
		entries: make(map[model.KnowledgeKey]*model.KnowledgeEntry),
	}
}

func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// copyKnowledgeEntry creates a deep copy of a knowledge entry
func copyKnowledgeEntry(e *model.KnowledgeEntry) *model.KnowledgeEntry {
	copied := *e
	copied.Content = model.KnowledgeContent{
		Description: e.Content.Description,
		Steps: model.PlatformSteps{
			Web:    copyStrings(e.Content.Steps.Web),
			Mobile: copyStrings(e.Content.Steps.Mobile),
		},
		Tips:         copyStrings(e.Content.Tips),
		Notes:        copyStrings(e.Content.Notes),
		CommonErrors: copyStrings(e.Content.CommonErrors),
		Media: model.KnowledgeMedia{
			Images: model.PlatformImages{
				Web:    copyStrings(e.Content.Media.Images.Web),
				Mobile: copyStrings(e.Content.Media.Images.Mobile),
			},
			VideoURL: e.Content.Media.VideoURL,
		},
	}
	copied.Keywords = copyStrings(e.Keywords)
	copied.SampleQuestions = copyStrings(e.SampleQuestions)
	if e.RelatedKeys != nil {
		copied.RelatedKeys = make([]model.KnowledgeKey, len(e.RelatedKeys))
		copy(copied.RelatedKeys, e.RelatedKeys)
	}
	return &copied
}

func (r *knowledgeRepository) Upsert(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	saved := copyKnowledgeEntry(entry)
	saved.CreatedAt = now
	saved.UpdatedAt = now
	if existing, ok := r.entries[entry.Key]; ok {
		saved.CreatedAt = existing.CreatedAt
		saved.ViewCount = existing.ViewCount
	}

	r.entries[saved.Key] = saved
	return copyKnowledgeEntry(saved), nil
}

func (r *knowledgeRepository) Get(ctx context.Context, key model.KnowledgeKey) (*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[key]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
	}

	return copyKnowledgeEntry(entry), nil
}

func (r *knowledgeRepository) List(ctx context.Context, filter interfaces.KnowledgeFilter) ([]*model.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.KnowledgeEntry, 0)
	for _, e := range r.entries {
		if filter.Match(e) {
			result = append(result, copyKnowledgeEntry(e))
		}
	}

	// Map iteration order is random; return a stable order
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result, nil
}

func (r *knowledgeRepository) IncrementViewCount(ctx context.Context, key model.KnowledgeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
	}
	entry.ViewCount++
	return nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, key model.KnowledgeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
	}
	entry.Deleted = true
	entry.UpdatedAt = time.Now().UTC()
	return nil
}
