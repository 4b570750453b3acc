package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type platformListDoc struct {
	Web    []string `firestore:"Web"`
	Mobile []string `firestore:"Mobile"`
}

type knowledgeContentDoc struct {
	Description  string          `firestore:"Description"`
	Steps        platformListDoc `firestore:"Steps"`
	Tips         []string        `firestore:"Tips"`
	Notes        []string        `firestore:"Notes"`
	CommonErrors []string        `firestore:"CommonErrors"`
	Images       platformListDoc `firestore:"Images"`
	VideoURL     string          `firestore:"VideoURL"`
}

// knowledgeEntryDoc is the Firestore document representation of model.KnowledgeEntry.
// The document ID is the entry key.
type knowledgeEntryDoc struct {
	Key             string              `firestore:"Key"`
	Category        string              `firestore:"Category"`
	Platform        string              `firestore:"Platform"`
	Locale          string              `firestore:"Locale"`
	Title           string              `firestore:"Title"`
	Content         knowledgeContentDoc `firestore:"Content"`
	SearchableText  string              `firestore:"SearchableText"`
	Keywords        []string            `firestore:"Keywords"`
	SampleQuestions []string            `firestore:"SampleQuestions"`
	RelatedKeys     []string            `firestore:"RelatedKeys"`
	Priority        int                 `firestore:"Priority"`
	ViewCount       int64               `firestore:"ViewCount"`
	IsActive        bool                `firestore:"IsActive"`
	Deleted         bool                `firestore:"Deleted"`
	CreatedAt       time.Time           `firestore:"CreatedAt"`
	UpdatedAt       time.Time           `firestore:"UpdatedAt"`
}

func toKnowledgeEntryDoc(e *model.KnowledgeEntry) *knowledgeEntryDoc {
	related := make([]string, len(e.RelatedKeys))
	for i, k := range e.RelatedKeys {
		related[i] = string(k)
	}

	return &knowledgeEntryDoc{
		Key:      string(e.Key),
		Category: e.Category,
		Platform: string(e.Platform),
		Locale:   string(e.Locale),
		Title:    e.Title,
		Content: knowledgeContentDoc{
			Description:  e.Content.Description,
			Steps:        platformListDoc{Web: e.Content.Steps.Web, Mobile: e.Content.Steps.Mobile},
			Tips:         e.Content.Tips,
			Notes:        e.Content.Notes,
			CommonErrors: e.Content.CommonErrors,
			Images:       platformListDoc{Web: e.Content.Media.Images.Web, Mobile: e.Content.Media.Images.Mobile},
			VideoURL:     e.Content.Media.VideoURL,
		},
		SearchableText:  e.SearchableText,
		Keywords:        e.Keywords,
		SampleQuestions: e.SampleQuestions,
		RelatedKeys:     related,
		Priority:        e.Priority,
		ViewCount:       e.ViewCount,
		IsActive:        e.IsActive,
		Deleted:         e.Deleted,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromKnowledgeEntryDoc(d *knowledgeEntryDoc) *model.KnowledgeEntry {
	related := make([]model.KnowledgeKey, len(d.RelatedKeys))
	for i, k := range d.RelatedKeys {
		related[i] = model.KnowledgeKey(k)
	}

	return &model.KnowledgeEntry{
		Key:      model.KnowledgeKey(d.Key),
		Category: d.Category,
		Platform: types.Platform(d.Platform),
		Locale:   types.Locale(d.Locale),
		Title:    d.Title,
		Content: model.KnowledgeContent{
			Description:  d.Content.Description,
			Steps:        model.PlatformSteps{Web: d.Content.Steps.Web, Mobile: d.Content.Steps.Mobile},
			Tips:         d.Content.Tips,
			Notes:        d.Content.Notes,
			CommonErrors: d.Content.CommonErrors,
			Media: model.KnowledgeMedia{
				Images:   model.PlatformImages{Web: d.Content.Images.Web, Mobile: d.Content.Images.Mobile},
				VideoURL: d.Content.VideoURL,
			},
		},
		SearchableText:  d.SearchableText,
		Keywords:        d.Keywords,
		SampleQuestions: d.SampleQuestions,
		RelatedKeys:     related,
		Priority:        d.Priority,
		ViewCount:       d.ViewCount,
		IsActive:        d.IsActive,
		Deleted:         d.Deleted,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type knowledgeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newKnowledgeRepository(client *firestore.Client) *knowledgeRepository {
	return &knowledgeRepository{
		client: client,
	}
}

func (r *knowledgeRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, knowledgeEntriesCollection))
}

func (r *knowledgeRepository) Upsert(ctx context.Context, entry *model.KnowledgeEntry) (*model.KnowledgeEntry, error) {
	docRef := r.collection().Doc(string(entry.Key))
	saved := *entry

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		saved.ViewCount = entry.ViewCount

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get knowledge entry")
		}
		if err == nil {
			var existing knowledgeEntryDoc
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal knowledge entry")
			}
			saved.CreatedAt = existing.CreatedAt
			saved.ViewCount = existing.ViewCount
		}

		return tx.Set(docRef, toKnowledgeEntryDoc(&saved))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert knowledge entry", goerr.V(model.KnowledgeKeyKey, entry.Key))
	}

	return &saved, nil
}

func (r *knowledgeRepository) Get(ctx context.Context, key model.KnowledgeKey) (*model.KnowledgeEntry, error) {
	doc, err := r.collection().Doc(string(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}

	var d knowledgeEntryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	return fromKnowledgeEntryDoc(&d), nil
}

func (r *knowledgeRepository) List(ctx context.Context, filter interfaces.KnowledgeFilter) ([]*model.KnowledgeEntry, error) {
	// Equality-only filters are served by Firestore's single-field indexes
	query := r.collection().
		Where("IsActive", "==", true).
		Where("Deleted", "==", false)
	if filter.Locale != "" {
		query = query.Where("Locale", "==", string(filter.Locale))
	}
	if filter.Platform != "" {
		query = query.Where("Platform", "in", []string{string(filter.Platform), string(types.PlatformAll)})
	}
	if filter.Category != "" {
		query = query.Where("Category", "==", filter.Category)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.KnowledgeEntry, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate knowledge entries")
		}

		var d knowledgeEntryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal knowledge entry", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, fromKnowledgeEntryDoc(&d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result, nil
}

func (r *knowledgeRepository) IncrementViewCount(ctx context.Context, key model.KnowledgeKey) error {
	_, err := r.collection().Doc(string(key)).Update(ctx, []firestore.Update{
		{Path: "ViewCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return goerr.Wrap(err, "failed to increment view count", goerr.V(model.KnowledgeKeyKey, key))
	}
	return nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, key model.KnowledgeKey) error {
	_, err := r.collection().Doc(string(key)).Update(ctx, []firestore.Update{
		{Path: "Deleted", Value: true},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "knowledge entry not found", goerr.V(model.KnowledgeKeyKey, key))
		}
		return goerr.Wrap(err, "failed to delete knowledge entry", goerr.V(model.KnowledgeKeyKey, key))
	}
	return nil
}
