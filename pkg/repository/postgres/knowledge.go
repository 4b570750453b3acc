package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type knowledgeEntryRow struct {
	Key             string                 `gorm:"column:entry_key;primaryKey"`
	Category        string                 `gorm:"index;not null"`
	Platform        string                 `gorm:"not null"`
	Locale          string                 `gorm:"not null"`
	Title           string                 `gorm:"type:text;not null"`
	Content         model.KnowledgeContent `gorm:"type:jsonb;serializer:json;not null"`
	SearchableText  string                 `gorm:"type:text;not null;default:''"`
	Keywords        pq.StringArray         `gorm:"type:text[];not null;default:'{}'"`
	SampleQuestions pq.StringArray         `gorm:"type:text[];not null;default:'{}'"`
	RelatedKeys     pq.StringArray         `gorm:"type:text[];not null;default:'{}'"`
	Priority        int                    `gorm:"not null;default:0"`
	ViewCount       int64                  `gorm:"not null;default:0"`
	IsActive        bool                   `gorm:"not null;default:true"`
	Deleted         bool                   `gorm:"not null;default:false"`
	CreatedAt       time.Time              `gorm:"not null"`
	UpdatedAt       time.Time              `gorm:"not null"`
}

func (knowledgeEntryRow) TableName() string {
	return "knowledge_entries"
}

func toKnowledgeEntryRow(e *model.KnowledgeEntry) *knowledgeEntryRow {
	related := make(pq.StringArray, len(e.RelatedKeys))
	for i, k := range e.RelatedKeys {
		related[i] = string(k)
	}
	return &knowledgeEntryRow{
		Key:             string(e.Key),
		Category:        e.Category,
		Platform:        string(e.Platform),
		Locale:          string(e.Locale),
		Title:           e.Title,
		Content:         e.Content,
		SearchableText:  e.SearchableText,
		Keywords:        nonNil(e.Keywords),
		SampleQuestions: nonNil(e.SampleQuestions),
		RelatedKeys:     related,
		Priority:        e.Priority,
		ViewCount:       e.ViewCount,
		IsActive:        e.IsActive,
		Deleted:         e.Deleted,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromKnowledgeEntryRow(row *knowledgeEntryRow) *model.KnowledgeEntry {
	related := make([]model.KnowledgeKey, len(row.RelatedKeys))
	for i, k := range row.RelatedKeys {
		related[i] = model.KnowledgeKey(k)
	}
	return &model.KnowledgeEntry{
		Key:             model.KnowledgeKey(row.Key),
		Category:        row.Category,
		Platform:        types.Platform(row.Platform),
		Locale:          types.Locale(row.Locale),
		Title:           row.Title,
		Content:         row.Content,
		SearchableText:  row.SearchableText,
		Keywords:        []string(row.Keywords),
		SampleQuestions: []string(row.SampleQuestions),
		RelatedKeys:     related,
		Priority:        row.Priority,
		ViewCount:       row.ViewCount,
		IsActive:        row.IsActive,
		Deleted:         row.Deleted,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// nonNil keeps "not null" array columns from receiving NULL
func nonNil(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

type knowledgeRepository struct {
	db *gorm.DB
}

func (r *knowledgeRepository) Upsert(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	now := time.Now().UTC()
	row := toKnowledgeEntryRow(entry)
	row.CreatedAt = now
	row.UpdatedAt = now

	// view_count and created_at survive a re-import
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category", "platform", "locale", "title", "content", "searchable_text",
			"keywords", "sample_questions", "related_keys", "priority", "is_active",
			"deleted", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert knowledge entry", goerr.V(model.KnowledgeKeyKey, entry.Key))
	}

	return r.Get(ctx, entry.Key)
}

func (r *knowledgeRepository) Get(ctx context.Context, key model.KnowledgeKey) (*model.KnowledgeEntry, error) {
	var row knowledgeEntryRow
	if err := r.db.WithContext(ctx).Where("entry_key = ?", string(key)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	return fromKnowledgeEntryRow(&row), nil
}

func (r *knowledgeRepository) List(ctx context.Context, filter interfaces.KnowledgeFilter) ([]*model.KnowledgeEntry, error) {
	query := r.db.WithContext(ctx).Where("is_active = ? AND deleted = ?", true, false)
	if filter.Locale != "" {
		query = query.Where("locale = ?", string(filter.Locale))
	}
	if filter.Platform != "" {
		query = query.Where("platform IN ?", []string{string(filter.Platform), string(types.PlatformAll)})
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var rows []knowledgeEntryRow
	if err := query.Order("entry_key").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge entries")
	}

	result := make([]*model.KnowledgeEntry, len(rows))
	for i := range rows {
		result[i] = fromKnowledgeEntryRow(&rows[i])
	}
	return result, nil
}

func (r *knowledgeRepository) IncrementViewCount(ctx context.Context, key model.KnowledgeKey) error {
	res := r.db.WithContext(ctx).Model(&knowledgeEntryRow{}).
		Where("entry_key = ?", string(key)).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to increment view count", goerr.V(model.KnowledgeKeyKey, key))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
	}
	return nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, key model.KnowledgeKey) error {
	res := r.db.WithContext(ctx).Model(&knowledgeEntryRow{}).
		Where("entry_key = ?", string(key)).
		Updates(map[string]any{"deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
	}
	return nil
}
