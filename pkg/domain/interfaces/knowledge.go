package interfaces

import (
	"context"

	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// KnowledgeFilter narrows List to the entries a client may see. Zero fields do not filter.
type KnowledgeFilter struct {
	Locale types.Locale
	// Platform is a client platform; entries tagged with it or with "all" match
	Platform types.Platform
	Category string
}

// Match reports whether entry passes the filter. Inactive and deleted entries never pass.
func (f KnowledgeFilter) Match(entry *model.KnowledgeEntry) bool {
	if !entry.IsActive || entry.Deleted {
		return false
	}
	if f.Locale != "" && entry.Locale != f.Locale {
		return false
	}
	if f.Platform != "" && !entry.Platform.Matches(f.Platform) {
		return false
	}
	if f.Category != "" && entry.Category != f.Category {
		return false
	}
	return true
}

// KnowledgeRepository defines the interface for knowledge entry persistence
type KnowledgeRepository interface {
	// Upsert creates or replaces the entry identified by entry.Key. ViewCount and
	// CreatedAt of an existing entry are preserved.
	Upsert(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error)

	// Get retrieves an entry by key regardless of its active or deleted state
	Get(ctx context.Context, key model.KnowledgeKey) (*model.KnowledgeEntry, error)

	// List returns active, non-deleted entries that pass filter
	List(ctx context.Context, filter KnowledgeFilter) ([]*model.KnowledgeEntry, error)

	// IncrementViewCount adds one to the view count of key
	IncrementViewCount(ctx context.Context, key model.KnowledgeKey) error

	// Delete soft-deletes the entry
	Delete(ctx context.Context, key model.KnowledgeKey) error
}
