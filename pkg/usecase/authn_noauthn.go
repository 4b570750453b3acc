package usecase

import (
	"context"

	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// NoAuthnUseCase authenticates every request as one fixed user (for development/testing)
type NoAuthnUseCase struct {
	user types.UserID
}

// NewNoAuthnUseCase creates a new NoAuthnUseCase acting as user
func NewNoAuthnUseCase(user types.UserID) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		user: user,
	}
}

// Authenticate ignores the token and returns the configured user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, token string) (types.UserID, error) {
	return uc.user, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
