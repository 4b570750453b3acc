package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/contactbook/pkg/controller/http"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

var testSecret = []byte("test-secret-of-sufficient-length")

func signToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	gt.NoError(t, err).Required()

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestAuthMiddleware(t *testing.T) {
	uc := usecase.New(memory.New(), usecase.WithAuth(usecase.NewAuthUseCase(testSecret)))
	server := httpctrl.New(uc)

	get := func(path, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		return w
	}

	t.Run("valid bearer token", func(t *testing.T) {
		w := get("/api/me", "Bearer "+signToken(t, "user-42", time.Hour))
		gt.Value(t, w.Code).Equal(http.StatusOK)
		body := decode[struct {
			UserID  string `json:"user_id"`
			NoAuthn bool   `json:"no_authn"`
		}](t, w)
		gt.Value(t, body.UserID).Equal("user-42")
		gt.Bool(t, body.NoAuthn).False()
	})

	t.Run("missing token", func(t *testing.T) {
		w := get("/api/reminders", "")
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		w := get("/api/reminders", "Bearer "+signToken(t, "user-42", -time.Hour))
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("not a bearer header", func(t *testing.T) {
		w := get("/api/reminders", "Basic dXNlcjpwYXNz")
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("knowledge stays public", func(t *testing.T) {
		w := get("/api/knowledge/categories", "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("no authenticator configured", func(t *testing.T) {
		server := httpctrl.New(usecase.New(memory.New()))
		req := httptest.NewRequest(http.MethodGet, "/api/reminders", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})
}
