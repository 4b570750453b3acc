package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

// Resolve answers q from the best matching knowledge entry, or from the generative
// backend when no entry matches. A knowledge hit counts as a read of the entry.
func (uc *KnowledgeUseCase) Resolve(ctx context.Context, q model.Question) (*model.Answer, error) {
	if q.Locale == "" {
		q.Locale = types.DefaultLocale
	}
	if err := q.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error())
	}

	entry, err := uc.match(ctx, q)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		answer := model.NewKnowledgeAnswer(entry, q.Platform, uc.relatedArticles(ctx, entry))
		uc.countView(ctx, entry.Key)
		return answer, nil
	}

	return uc.generate(ctx, q)
}

// match returns the first entry under (priority desc, view_count desc) that matches
// q, or nil when none does
func (uc *KnowledgeUseCase) match(ctx context.Context, q model.Question) (*model.KnowledgeEntry, error) {
	candidates, err := uc.list(ctx, interfaces.KnowledgeFilter{Locale: q.Locale, Platform: q.Platform})
	if err != nil {
		return nil, err
	}
	rankEntries(candidates)

	question := strings.ToLower(strings.TrimSpace(q.Text))
	tokens := tokenize(q.Text)

	for _, entry := range candidates {
		if matchesQuestion(entry, question, tokens) {
			logging.From(ctx).Debug("question matched knowledge entry",
				"knowledge_key", entry.Key, "tokens", tokens)
			return entry, nil
		}
	}
	return nil, nil
}

// matchesQuestion holds when the searchable text contains a token, the title
// contains the question, a sample question contains the question, or a keyword
// contains a token. question and tokens are lowercase.
func matchesQuestion(entry *model.KnowledgeEntry, question string, tokens []string) bool {
	searchable := strings.ToLower(entry.SearchableText)
	for _, token := range tokens {
		if strings.Contains(searchable, token) {
			return true
		}
	}

	if question != "" && strings.Contains(strings.ToLower(entry.Title), question) {
		return true
	}

	for _, sample := range entry.SampleQuestions {
		if question != "" && strings.Contains(strings.ToLower(sample), question) {
			return true
		}
	}

	for _, keyword := range entry.Keywords {
		kw := strings.ToLower(keyword)
		for _, token := range tokens {
			if strings.Contains(kw, token) {
				return true
			}
		}
	}

	return false
}

func (uc *KnowledgeUseCase) generationRequest(ctx context.Context, q model.Question) (genai.Request, error) {
	articles, err := uc.cache.get(ctx, contextKey{locale: q.Locale, platform: q.Platform})
	if err != nil {
		return genai.Request{}, goerr.Wrap(err, "failed to load knowledge context")
	}
	return genai.Request{
		Question: q.Text,
		Platform: q.Platform,
		Locale:   q.Locale,
		Articles: articles,
	}, nil
}

func (uc *KnowledgeUseCase) generate(ctx context.Context, q model.Question) (*model.Answer, error) {
	if uc.genai == nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "generative backend is not configured")
	}

	req, err := uc.generationRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	result, err := uc.genai.Generate(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(generationFailed(err), "failed to generate answer",
			goerr.V(PlatformKey, q.Platform), goerr.V(LocaleKey, q.Locale))
	}

	return &model.Answer{
		Source:  types.AnswerSourceAI,
		Text:    result.Text,
		Sources: result.Sources,
		Usage:   result.Usage,
	}, nil
}

// generationFailed tags cause with ErrGenerationFailed and keeps it unwrappable
func generationFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrGenerationFailed, cause)
}
