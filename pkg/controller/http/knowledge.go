package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type stepCountsResponse struct {
	Web    int `json:"web"`
	Mobile int `json:"mobile"`
}

type knowledgeSummaryResponse struct {
	Key        string             `json:"key"`
	Title      string             `json:"title"`
	Category   string             `json:"category"`
	Platform   string             `json:"platform"`
	Priority   int                `json:"priority"`
	ViewCount  int64              `json:"view_count"`
	StepCounts stepCountsResponse `json:"step_counts"`
}

type relatedResponse struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type usageResponse struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type answerResponse struct {
	Source       string            `json:"source"`
	KnowledgeKey string            `json:"knowledge_key,omitempty"`
	Category     string            `json:"category,omitempty"`
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	Steps        []string          `json:"steps,omitempty"`
	Tips         []string          `json:"tips,omitempty"`
	Notes        []string          `json:"notes,omitempty"`
	CommonErrors []string          `json:"common_errors,omitempty"`
	Images       []string          `json:"images,omitempty"`
	VideoURL     string            `json:"video_url,omitempty"`
	Related      []relatedResponse `json:"related,omitempty"`
	Text         string            `json:"text,omitempty"`
	Sources      []string          `json:"sources,omitempty"`
	Usage        *usageResponse    `json:"usage,omitempty"`
}

func toKnowledgeSummaries(list []*usecase.KnowledgeSummary) []knowledgeSummaryResponse {
	resp := make([]knowledgeSummaryResponse, len(list))
	for i, s := range list {
		resp[i] = knowledgeSummaryResponse{
			Key:       s.Key.String(),
			Title:     s.Title,
			Category:  s.Category,
			Platform:  s.Platform.String(),
			Priority:  s.Priority,
			ViewCount: s.ViewCount,
			StepCounts: stepCountsResponse{
				Web:    s.StepCounts.Web,
				Mobile: s.StepCounts.Mobile,
			},
		}
	}
	return resp
}

func toRelated(list []model.RelatedArticle) []relatedResponse {
	if len(list) == 0 {
		return nil
	}
	resp := make([]relatedResponse, len(list))
	for i, a := range list {
		resp[i] = relatedResponse{Key: a.Key.String(), Title: a.Title, Category: a.Category}
	}
	return resp
}

func toAnswerResponse(a *model.Answer) answerResponse {
	resp := answerResponse{
		Source:       a.Source.String(),
		KnowledgeKey: a.KnowledgeKey.String(),
		Category:     a.Category,
		Title:        a.Title,
		Description:  a.Description,
		Steps:        a.Steps,
		Tips:         a.Tips,
		Notes:        a.Notes,
		CommonErrors: a.CommonErrors,
		Images:       a.Images,
		VideoURL:     a.VideoURL,
		Related:      toRelated(a.Related),
		Text:         a.Text,
		Sources:      a.Sources,
	}
	if a.Source == types.AnswerSourceAI {
		resp.Usage = &usageResponse{InputTokens: a.Usage.InputTokens, OutputTokens: a.Usage.OutputTokens}
	}
	return resp
}

// knowledgeFilter reads the locale and platform query parameters
func knowledgeFilter(r *http.Request) (usecase.KnowledgeFilter, error) {
	q := r.URL.Query()

	locale, err := types.ParseLocale(q.Get("locale"))
	if err != nil {
		return usecase.KnowledgeFilter{}, goerr.Wrap(usecase.ErrInvalidInput, "locale must be vi or en")
	}

	var platform types.Platform
	if p := q.Get("platform"); p != "" {
		platform, err = types.ParseClientPlatform(p)
		if err != nil {
			return usecase.KnowledgeFilter{}, goerr.Wrap(usecase.ErrInvalidInput, "platform must be web or mobile")
		}
	}

	return usecase.KnowledgeFilter{Locale: locale, Platform: platform}, nil
}

func categoriesHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type response struct {
		Categories []string `json:"categories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := knowledgeFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		categories, err := uc.Categories(r.Context(), filter)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Categories: categories})
	}
}

func categoryEntriesHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type response struct {
		Category string                     `json:"category"`
		Entries  []knowledgeSummaryResponse `json:"entries"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := knowledgeFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		category := chi.URLParam(r, "category")
		entries, err := uc.ListByCategory(r.Context(), filter, category)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{
			Category: category,
			Entries:  toKnowledgeSummaries(entries),
		})
	}
}

func knowledgeEntryHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := knowledgeFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		key := model.KnowledgeKey(chi.URLParam(r, "key"))
		answer, err := uc.GetAnswer(r.Context(), key, filter.Platform)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toAnswerResponse(answer))
	}
}

func topKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type response struct {
		Entries []knowledgeSummaryResponse `json:"entries"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := knowledgeFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			limit, err = strconv.Atoi(s)
			if err != nil || limit < 1 {
				handleError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "limit must be a positive integer"))
				return
			}
		}

		entries, err := uc.Top(r.Context(), filter, limit)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Entries: toKnowledgeSummaries(entries)})
	}
}

func searchKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type response struct {
		Query   string            `json:"query"`
		Results []relatedResponse `json:"results"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := knowledgeFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		query := r.URL.Query().Get("q")
		hits, err := uc.Search(r.Context(), filter, query)
		if err != nil {
			handleError(w, r, err)
			return
		}

		results := make([]relatedResponse, len(hits))
		for i, h := range hits {
			results[i] = relatedResponse{Key: h.Key.String(), Title: h.Title, Category: h.Category}
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Query: query, Results: results})
	}
}
