package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth configures bearer token verification for owner scoped endpoints
type Auth struct {
	jwtSecret string
	issuer    string
	audience  string
	noAuthUID string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret used to verify bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CONTACTBOOK_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Required iss claim of bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CONTACTBOOK_JWT_ISSUER"),
			Destination: &x.issuer,
		},
		&cli.StringFlag{
			Name:        "jwt-audience",
			Usage:       "Required aud claim of bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CONTACTBOOK_JWT_AUDIENCE"),
			Destination: &x.audience,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and act as the given user ID (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CONTACTBOOK_NO_AUTH"),
			Destination: &x.noAuthUID,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("issuer", x.issuer),
		slog.String("audience", x.audience),
		slog.String("no-auth", x.noAuthUID),
	)
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUID != ""
}

// Configure returns the JWT authenticator, or the fixed-user one in no-auth mode
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuthUID != "" {
		if x.jwtSecret != "" {
			slog.Warn("--no-auth is set, ignoring --jwt-secret")
		}
		return usecase.NewNoAuthnUseCase(types.UserID(x.noAuthUID)), nil
	}

	if x.jwtSecret == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "authentication is required: set --jwt-secret, or use --no-auth for development")
	}

	var opts []usecase.AuthOption
	if x.issuer != "" {
		opts = append(opts, usecase.WithIssuer(x.issuer))
	}
	if x.audience != "" {
		opts = append(opts, usecase.WithAudience(x.audience))
	}
	return usecase.NewAuthUseCase([]byte(x.jwtSecret), opts...), nil
}
