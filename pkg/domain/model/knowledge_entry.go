package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// KnowledgeKey is the globally unique, human readable identifier of a help article
type KnowledgeKey string

// String returns the string representation of the key
func (k KnowledgeKey) String() string {
	return string(k)
}

// PlatformSteps holds the ordered instructions for each client platform
type PlatformSteps struct {
	Web    []string
	Mobile []string
}

// For returns the steps for p, falling back to web and then mobile when p has none
func (s PlatformSteps) For(p types.Platform) []string {
	return pickByPlatform(p, s.Web, s.Mobile)
}

// PlatformImages holds screenshot URLs for each client platform
type PlatformImages struct {
	Web    []string
	Mobile []string
}

// For returns the images for p, falling back to web and then mobile when p has none
func (i PlatformImages) For(p types.Platform) []string {
	return pickByPlatform(p, i.Web, i.Mobile)
}

func pickByPlatform(p types.Platform, web, mobile []string) []string {
	if p == types.PlatformMobile && len(mobile) > 0 {
		return mobile
	}
	if len(web) > 0 {
		return web
	}
	return mobile
}

// KnowledgeMedia is the optional media attached to an article
type KnowledgeMedia struct {
	Images   PlatformImages
	VideoURL string
}

// KnowledgeContent is the structured body of an article
type KnowledgeContent struct {
	Description  string
	Steps        PlatformSteps
	Tips         []string
	Notes        []string
	CommonErrors []string
	Media        KnowledgeMedia
}

// KnowledgeEntry is one curated help article. Platform and Locale are filters, not
// identity: Key alone identifies the entry.
type KnowledgeEntry struct {
	Key             KnowledgeKey
	Category        string
	Platform        types.Platform
	Locale          types.Locale
	Title           string
	Content         KnowledgeContent
	SearchableText  string
	Keywords        []string
	SampleQuestions []string
	RelatedKeys     []KnowledgeKey // weak references, may point at missing entries
	Priority        int
	ViewCount       int64
	IsActive        bool
	Deleted         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VisibleTo reports whether the entry may be served for a question in locale on platform
func (e *KnowledgeEntry) VisibleTo(locale types.Locale, platform types.Platform) bool {
	return e.IsActive && !e.Deleted && e.Locale == locale && e.Platform.Matches(platform)
}

// Validate checks that the entry can be stored
func (e *KnowledgeEntry) Validate() error {
	if e.Key == "" {
		return goerr.Wrap(ErrInvalidKnowledge, "key is required")
	}
	if strings.ContainsAny(string(e.Key), " /\t\n") {
		return goerr.Wrap(ErrInvalidKnowledge, "key must not contain spaces or slashes", goerr.V(KnowledgeKeyKey, e.Key))
	}
	if e.Category == "" {
		return goerr.Wrap(ErrInvalidKnowledge, "category is required", goerr.V(KnowledgeKeyKey, e.Key))
	}
	if e.Title == "" {
		return goerr.Wrap(ErrInvalidKnowledge, "title is required", goerr.V(KnowledgeKeyKey, e.Key))
	}
	if !e.Platform.IsValid() {
		return goerr.Wrap(ErrInvalidKnowledge, "invalid platform",
			goerr.V(KnowledgeKeyKey, e.Key), goerr.V("platform", e.Platform))
	}
	if !e.Locale.IsValid() {
		return goerr.Wrap(ErrInvalidKnowledge, "invalid locale",
			goerr.V(KnowledgeKeyKey, e.Key), goerr.V("locale", e.Locale))
	}
	for _, related := range e.RelatedKeys {
		if related == e.Key {
			return goerr.Wrap(ErrInvalidKnowledge, "entry must not relate to itself", goerr.V(KnowledgeKeyKey, e.Key))
		}
	}
	return nil
}

// Normalize trims text fields and collapses Keywords and RelatedKeys into sets,
// keeping first-seen order
func (e *KnowledgeEntry) Normalize() {
	e.Key = KnowledgeKey(strings.TrimSpace(string(e.Key)))
	e.Category = strings.TrimSpace(e.Category)
	e.Title = strings.TrimSpace(e.Title)

	seen := make(map[string]struct{}, len(e.Keywords))
	keywords := make([]string, 0, len(e.Keywords))
	for _, kw := range e.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	e.Keywords = keywords

	seenKeys := make(map[KnowledgeKey]struct{}, len(e.RelatedKeys))
	related := make([]KnowledgeKey, 0, len(e.RelatedKeys))
	for _, k := range e.RelatedKeys {
		k = KnowledgeKey(strings.TrimSpace(string(k)))
		if k == "" {
			continue
		}
		if _, ok := seenKeys[k]; ok {
			continue
		}
		seenKeys[k] = struct{}{}
		related = append(related, k)
	}
	e.RelatedKeys = related
}
