package model

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// MaxQuestionLength is the maximum number of characters in a question
const MaxQuestionLength = 500

// Question is a free-text help request from a client
type Question struct {
	Text     string
	Platform types.Platform
	Locale   types.Locale
}

// Validate checks the question before any resolution runs
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return goerr.Wrap(ErrInvalidQuestion, "question is required")
	}
	if n := utf8.RuneCountInString(q.Text); n > MaxQuestionLength {
		return goerr.Wrap(ErrInvalidQuestion, "question is too long", goerr.V("length", n))
	}
	if !q.Platform.IsClient() {
		return goerr.Wrap(ErrInvalidQuestion, "platform must be web or mobile", goerr.V("platform", q.Platform))
	}
	if !q.Locale.IsValid() {
		return goerr.Wrap(ErrInvalidQuestion, "invalid locale", goerr.V("locale", q.Locale))
	}
	return nil
}

// RelatedArticle is a pointer to another entry shown under an answer
type RelatedArticle struct {
	Key      KnowledgeKey
	Title    string
	Category string
}

// TokenUsage is the accounting reported by the generative backend
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Answer is the structured reply to a question. Knowledge answers fill the content
// fields; generative answers fill Text and Sources.
type Answer struct {
	Source types.AnswerSource

	KnowledgeKey KnowledgeKey
	Category     string
	Title        string
	Description  string
	Steps        []string
	Tips         []string
	Notes        []string
	CommonErrors []string
	Images       []string
	VideoURL     string
	Related      []RelatedArticle

	Text    string
	Sources []string
	Usage   TokenUsage
}

// NewKnowledgeAnswer builds the answer for entry as seen on platform
func NewKnowledgeAnswer(entry *KnowledgeEntry, platform types.Platform, related []RelatedArticle) *Answer {
	return &Answer{
		Source:       types.AnswerSourceKnowledge,
		KnowledgeKey: entry.Key,
		Category:     entry.Category,
		Title:        entry.Title,
		Description:  entry.Content.Description,
		Steps:        entry.Content.Steps.For(platform),
		Tips:         entry.Content.Tips,
		Notes:        entry.Content.Notes,
		CommonErrors: entry.Content.CommonErrors,
		Images:       entry.Content.Media.Images.For(platform),
		VideoURL:     entry.Content.Media.VideoURL,
		Related:      related,
	}
}

// StreamEvent is one element of a streamed answer
type StreamEvent struct {
	Type         types.StreamEventType
	Source       types.AnswerSource
	Text         string
	Index        int
	Items        []string
	Related      []RelatedArticle
	KnowledgeKey KnowledgeKey
}
