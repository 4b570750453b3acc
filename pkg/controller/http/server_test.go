package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/contactbook/pkg/controller/http"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type mockGenAI struct {
	result    *genai.Result
	err       error
	chunks    []genai.Chunk
	streamErr error
}

func (m *mockGenAI) Generate(ctx context.Context, req genai.Request) (*genai.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockGenAI) Stream(ctx context.Context, req genai.Request) (<-chan genai.Chunk, error) {
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	ch := make(chan genai.Chunk, len(m.chunks))
	for _, c := range m.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

type testServer struct {
	repo   *memory.Memory
	server *httpctrl.Server
}

func newTestServer(t *testing.T, gen genai.Service, opts ...usecase.Option) *testServer {
	t.Helper()
	repo := memory.New()

	base := []usecase.Option{
		usecase.WithStepDelay(0),
		usecase.WithAuth(usecase.NewNoAuthnUseCase("dev-user")),
	}
	if gen != nil {
		base = append(base, usecase.WithGenAI(gen))
	}
	uc := usecase.New(repo, append(base, opts...)...)

	return &testServer{
		repo:   repo,
		server: httpctrl.New(uc),
	}
}

func (s *testServer) seed(t *testing.T, entries ...*model.KnowledgeEntry) {
	t.Helper()
	for _, e := range entries {
		_, err := s.repo.Knowledge().Upsert(context.Background(), e)
		gt.NoError(t, err).Required()
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	s.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

func knowledgeEntry(key, title string) *model.KnowledgeEntry {
	return &model.KnowledgeEntry{
		Key:      model.KnowledgeKey(key),
		Category: "account",
		Platform: types.PlatformAll,
		Locale:   types.LocaleEN,
		Title:    title,
		IsActive: true,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/health", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
}

func TestCORS(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	server := httpctrl.New(uc, httpctrl.WithCORS([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	gt.Value(t, w.Header().Get("Access-Control-Allow-Origin")).Equal("https://app.example.com")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/nope", nil)
	gt.Value(t, w.Code).Equal(http.StatusNotFound)
}

