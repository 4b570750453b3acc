package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

type ctxUserKey struct{}

func contextWithUser(ctx context.Context, user types.UserID) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// userFromContext returns the authenticated user set by authMiddleware
func userFromContext(ctx context.Context) (types.UserID, bool) {
	user, ok := ctx.Value(ctxUserKey{}).(types.UserID)
	return user, ok && user != ""
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

type meResponse struct {
	UserID string `json:"user_id"`
	NoAuthn bool  `json:"no_authn"`
}

// authMiddleware resolves the request's user and rejects anonymous requests
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil {
				writeError(w, r, http.StatusUnauthorized, "authentication is not configured")
				return
			}

			token := bearerToken(r)
			if token == "" && !authUC.IsNoAuthn() {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := authUC.Authenticate(r.Context(), token)
			if err != nil {
				logging.From(r.Context()).Debug("authentication failed", logging.ErrAttr(err))
				writeError(w, r, http.StatusUnauthorized, "invalid authentication token")
				return
			}

			ctx := contextWithUser(r.Context(), user)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authMeHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r.Context())
		writeJSON(r.Context(), w, http.StatusOK, meResponse{
			UserID:  user.String(),
			NoAuthn: authUC.IsNoAuthn(),
		})
	}
}
