package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/interfaces"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type entryOption func(*model.KnowledgeEntry)

func newEntry(key, title string, opts ...entryOption) *model.KnowledgeEntry {
	e := &model.KnowledgeEntry{
		Key:      model.KnowledgeKey(key),
		Category: "account",
		Platform: types.PlatformAll,
		Locale:   types.LocaleEN,
		Title:    title,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func withCategory(c string) entryOption {
	return func(e *model.KnowledgeEntry) { e.Category = c }
}

func withPlatform(p types.Platform) entryOption {
	return func(e *model.KnowledgeEntry) { e.Platform = p }
}

func withLocale(l types.Locale) entryOption {
	return func(e *model.KnowledgeEntry) { e.Locale = l }
}

func withPriority(p int) entryOption {
	return func(e *model.KnowledgeEntry) { e.Priority = p }
}

func withSearchable(s string) entryOption {
	return func(e *model.KnowledgeEntry) { e.SearchableText = s }
}

func withKeywords(kw ...string) entryOption {
	return func(e *model.KnowledgeEntry) { e.Keywords = kw }
}

func withSteps(web, mobile []string) entryOption {
	return func(e *model.KnowledgeEntry) { e.Content.Steps = model.PlatformSteps{Web: web, Mobile: mobile} }
}

func withRelated(keys ...model.KnowledgeKey) entryOption {
	return func(e *model.KnowledgeEntry) { e.RelatedKeys = keys }
}

func inactive() entryOption {
	return func(e *model.KnowledgeEntry) { e.IsActive = false }
}

func seedKnowledge(t *testing.T, repo interfaces.Repository, entries ...*model.KnowledgeEntry) {
	t.Helper()
	for _, e := range entries {
		_, err := repo.Knowledge().Upsert(context.Background(), e)
		gt.NoError(t, err).Required()
	}
}

func addViews(t *testing.T, repo interfaces.Repository, key model.KnowledgeKey, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		gt.NoError(t, repo.Knowledge().IncrementViewCount(context.Background(), key)).Required()
	}
}

func viewCount(t *testing.T, repo interfaces.Repository, key model.KnowledgeKey) int64 {
	t.Helper()
	e, err := repo.Knowledge().Get(context.Background(), key)
	gt.NoError(t, err).Required()
	return e.ViewCount
}

func TestKnowledgeUseCase_Categories(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("billing-invoice", "Download invoice", withCategory("billing")),
		newEntry("account-reset", "Reset password"),
		newEntry("account-2fa", "Enable 2FA"),
		newEntry("contacts-import", "Import contacts", withCategory("contacts"), withLocale(types.LocaleVI)),
		newEntry("mobile-only", "Mobile sync", withCategory("sync"), withPlatform(types.PlatformMobile)),
		newEntry("hidden", "Hidden", withCategory("hidden"), inactive()),
	)
	uc := usecase.NewKnowledgeUseCase(repo, nil)

	t.Run("distinct and sorted", func(t *testing.T) {
		categories, err := uc.Categories(ctx, usecase.KnowledgeFilter{Locale: types.LocaleEN})
		gt.NoError(t, err).Required()
		gt.Value(t, categories).Equal([]string{"account", "billing", "sync"})
	})

	t.Run("platform narrows", func(t *testing.T) {
		categories, err := uc.Categories(ctx, usecase.KnowledgeFilter{Locale: types.LocaleEN, Platform: types.PlatformWeb})
		gt.NoError(t, err).Required()
		gt.Value(t, categories).Equal([]string{"account", "billing"})
	})

	t.Run("empty locale means vi", func(t *testing.T) {
		categories, err := uc.Categories(ctx, usecase.KnowledgeFilter{})
		gt.NoError(t, err).Required()
		gt.Value(t, categories).Equal([]string{"contacts"})
	})

	t.Run("all is not a client platform", func(t *testing.T) {
		_, err := uc.Categories(ctx, usecase.KnowledgeFilter{Platform: types.PlatformAll})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestKnowledgeUseCase_ListByCategory(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("account-reset", "Reset password", withPriority(5),
			withSteps([]string{"Open settings", "Click reset", "Check mail"}, nil)),
		newEntry("account-2fa", "Enable 2FA", withPriority(10),
			withSteps([]string{"Open security"}, []string{"Open app", "Tap security"})),
		newEntry("billing-invoice", "Download invoice", withCategory("billing")),
	)
	uc := usecase.NewKnowledgeUseCase(repo, nil)

	list, err := uc.ListByCategory(ctx, usecase.KnowledgeFilter{Locale: types.LocaleEN}, "account")
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(2).Required()
	gt.Value(t, list[0].Key).Equal(model.KnowledgeKey("account-2fa"))
	gt.Value(t, list[0].StepCounts).Equal(usecase.StepCounts{Web: 1, Mobile: 2})
	gt.Value(t, list[1].Key).Equal(model.KnowledgeKey("account-reset"))
	// mobile falls back to the web steps
	gt.Value(t, list[1].StepCounts).Equal(usecase.StepCounts{Web: 3, Mobile: 3})

	_, err = uc.ListByCategory(ctx, usecase.KnowledgeFilter{}, "  ")
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

func TestKnowledgeUseCase_Top(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("a", "A", withPriority(1)),
		newEntry("b", "B", withPriority(9)),
		newEntry("c", "C", withPriority(5)),
		newEntry("d", "D", withPriority(0)),
	)
	addViews(t, repo, "a", 3)
	addViews(t, repo, "c", 3)
	addViews(t, repo, "d", 7)
	uc := usecase.NewKnowledgeUseCase(repo, nil)

	top, err := uc.Top(ctx, usecase.KnowledgeFilter{Locale: types.LocaleEN}, 3)
	gt.NoError(t, err).Required()
	gt.Array(t, top).Length(3).Required()
	gt.Value(t, top[0].Key).Equal(model.KnowledgeKey("d"))
	gt.Value(t, top[0].ViewCount).Equal(int64(7))
	gt.Value(t, top[1].Key).Equal(model.KnowledgeKey("c"))
	gt.Value(t, top[2].Key).Equal(model.KnowledgeKey("a"))

	all, err := uc.Top(ctx, usecase.KnowledgeFilter{Locale: types.LocaleEN}, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(4)
}

func TestKnowledgeUseCase_Search(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("account-reset", "Reset Password", withSearchable("forgot login credentials")),
		newEntry("billing-invoice", "Download invoice", withCategory("billing")),
		newEntry("old-reset", "Reset password (legacy)", inactive()),
	)
	uc := usecase.NewKnowledgeUseCase(repo, nil)
	filter := usecase.KnowledgeFilter{Locale: types.LocaleEN}

	t.Run("title match ignores case", func(t *testing.T) {
		hits, err := uc.Search(ctx, filter, "PASSWORD")
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1).Required()
		gt.Value(t, hits[0].Key).Equal(model.KnowledgeKey("account-reset"))
	})

	t.Run("searchable text match", func(t *testing.T) {
		hits, err := uc.Search(ctx, filter, "credentials")
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1)
	})

	t.Run("no match is empty", func(t *testing.T) {
		hits, err := uc.Search(ctx, filter, "refund")
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(0)
	})

	t.Run("too short after trimming", func(t *testing.T) {
		_, err := uc.Search(ctx, filter, "  a ")
		gt.Error(t, err).Is(usecase.ErrQueryTooShort)
	})
}

func TestKnowledgeUseCase_GetAnswer(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("account-reset", "Reset password",
			withSteps([]string{"web 1", "web 2"}, []string{"mobile 1"}),
			withRelated("account-2fa", "missing", "vi-article", "hidden")),
		newEntry("account-2fa", "Enable 2FA"),
		newEntry("vi-article", "Bật 2FA", withLocale(types.LocaleVI)),
		newEntry("hidden", "Hidden", inactive()),
	)
	uc := usecase.NewKnowledgeUseCase(repo, nil)

	t.Run("web answer counts a view", func(t *testing.T) {
		answer, err := uc.GetAnswer(ctx, "account-reset", "")
		gt.NoError(t, err).Required()
		gt.Value(t, answer.Source).Equal(types.AnswerSourceKnowledge)
		gt.Value(t, answer.Steps).Equal([]string{"web 1", "web 2"})
		gt.Array(t, answer.Related).Length(1).Required()
		gt.Value(t, answer.Related[0].Key).Equal(model.KnowledgeKey("account-2fa"))
		gt.Value(t, viewCount(t, repo, "account-reset")).Equal(int64(1))
	})

	t.Run("mobile answer uses mobile steps", func(t *testing.T) {
		answer, err := uc.GetAnswer(ctx, "account-reset", types.PlatformMobile)
		gt.NoError(t, err).Required()
		gt.Value(t, answer.Steps).Equal([]string{"mobile 1"})
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := uc.GetAnswer(ctx, "nope", types.PlatformWeb)
		gt.Error(t, err).Is(usecase.ErrKnowledgeNotFound)
	})

	t.Run("inactive entry", func(t *testing.T) {
		_, err := uc.GetAnswer(ctx, "hidden", types.PlatformWeb)
		gt.Error(t, err).Is(usecase.ErrKnowledgeNotFound)
		gt.Value(t, viewCount(t, repo, "hidden")).Equal(int64(0))
	})

	t.Run("invalid platform", func(t *testing.T) {
		_, err := uc.GetAnswer(ctx, "account-reset", types.PlatformAll)
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestKnowledgeUseCase_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate keys write nothing", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewKnowledgeUseCase(repo, nil)

		_, err := uc.Import(ctx, []*model.KnowledgeEntry{
			newEntry("a", "A"),
			newEntry(" a ", "A again"),
		})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		_, err = repo.Knowledge().Get(ctx, "a")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("invalid entry writes nothing", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewKnowledgeUseCase(repo, nil)

		_, err := uc.Import(ctx, []*model.KnowledgeEntry{
			newEntry("a", "A"),
			newEntry("b", ""),
		})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		_, err = repo.Knowledge().Get(ctx, "a")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("reimport keeps view counts", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewKnowledgeUseCase(repo, nil)

		n, err := uc.Import(ctx, []*model.KnowledgeEntry{newEntry("a", "A"), newEntry("b", "B")})
		gt.NoError(t, err).Required()
		gt.Value(t, n).Equal(2)
		addViews(t, repo, "a", 4)

		_, err = uc.Import(ctx, []*model.KnowledgeEntry{newEntry("a", "A v2", withKeywords("Reset", "reset "))})
		gt.NoError(t, err).Required()

		e, err := repo.Knowledge().Get(ctx, "a")
		gt.NoError(t, err).Required()
		gt.Value(t, e.Title).Equal("A v2")
		gt.Value(t, e.ViewCount).Equal(int64(4))
		gt.Value(t, e.Keywords).Equal([]string{"reset"})
	})

	t.Run("validate does not write", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewKnowledgeUseCase(repo, nil)

		gt.NoError(t, uc.ValidateEntries([]*model.KnowledgeEntry{newEntry("a", "A")}))
		_, err := repo.Knowledge().Get(ctx, "a")
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestKnowledgeUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	miss := question("refund policy", types.PlatformWeb, types.LocaleEN)

	repo := memory.New()
	seedKnowledge(t, repo,
		newEntry("a", "Alpha", withRelated("b")),
		newEntry("b", "Beta"),
	)
	gen := &mockGenAI{result: &genai.Result{Text: "ok"}}
	uc := usecase.NewKnowledgeUseCase(repo, gen, usecase.WithContextCacheTTL(time.Hour))

	_, err := uc.Resolve(ctx, miss)
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Delete(ctx, "b")).Required()

	t.Run("entry is kept but marked deleted", func(t *testing.T) {
		e, err := repo.Knowledge().Get(ctx, "b")
		gt.NoError(t, err).Required()
		gt.Bool(t, e.Deleted).True()
	})

	t.Run("deleted entry is not served", func(t *testing.T) {
		_, err := uc.GetAnswer(ctx, "b", types.PlatformWeb)
		gt.Error(t, err).Is(usecase.ErrKnowledgeNotFound)

		answer, err := uc.GetAnswer(ctx, "a", types.PlatformWeb)
		gt.NoError(t, err).Required()
		gt.Array(t, answer.Related).Length(0)
	})

	t.Run("generative context is reloaded", func(t *testing.T) {
		_, err := uc.Resolve(ctx, miss)
		gt.NoError(t, err).Required()
		gt.Array(t, gen.requests).Length(2).Required()
		gt.Value(t, articleKeys(gen.requests[0])).Equal([]model.KnowledgeKey{"a", "b"})
		gt.Value(t, articleKeys(gen.requests[1])).Equal([]model.KnowledgeKey{"a"})
	})

	t.Run("unknown and empty keys", func(t *testing.T) {
		gt.Error(t, uc.Delete(ctx, "missing")).Is(usecase.ErrKnowledgeNotFound)
		gt.Error(t, uc.Delete(ctx, "  ")).Is(usecase.ErrInvalidInput)
	})

	t.Run("import restores the entry", func(t *testing.T) {
		_, err := uc.Import(ctx, []*model.KnowledgeEntry{newEntry("b", "Beta")})
		gt.NoError(t, err).Required()
		_, err = uc.GetAnswer(ctx, "b", types.PlatformWeb)
		gt.NoError(t, err)
	})
}
