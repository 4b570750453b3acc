package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// AuthUseCaseInterface identifies the user behind a request
type AuthUseCaseInterface interface {
	// Authenticate verifies a bearer token and returns its user
	Authenticate(ctx context.Context, token string) (types.UserID, error)

	// IsNoAuthn reports whether every request runs as a fixed user
	IsNoAuthn() bool
}

const defaultClockSkew = 30 * time.Second

// AuthUseCase verifies HS256-signed JWTs issued by the identity provider. The
// subject claim is the user ID.
type AuthUseCase struct {
	secret   []byte
	issuer   string
	audience string
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithIssuer requires the iss claim to equal issuer
func WithIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

// WithAudience requires the aud claim to contain audience
func WithAudience(audience string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.audience = audience
	}
}

func NewAuthUseCase(secret []byte, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		secret: secret,
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (types.UserID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", goerr.Wrap(ErrUnauthenticated, "token is required")
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(defaultClockSkew),
	}
	if uc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(uc.issuer))
	}
	if uc.audience != "" {
		opts = append(opts, jwt.WithAudience(uc.audience))
	}

	parsed, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return "", goerr.Wrap(ErrUnauthenticated, "invalid token", goerr.V("reason", err.Error()))
	}

	sub := parsed.Subject()
	if sub == "" {
		return "", goerr.Wrap(ErrUnauthenticated, "token has no subject")
	}

	return types.UserID(sub), nil
}

func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}
