package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kindred-lab/kindred/pkg/usecase"
)

// Auth holds CLI flags for token verification
type Auth struct {
	jwtSecret string
	noAuth    string
}

// Flags returns CLI flags for auth configuration
func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "Shared HMAC secret for bearer token verification",
			Sources:     cli.EnvVars("KINDRED_JWT_SECRET"),
			Destination: &a.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Bypass authentication and act as the given subject (development only)",
			Sources:     cli.EnvVars("KINDRED_NO_AUTH"),
			Destination: &a.noAuth,
		},
	}
}

// LogValue renders the configuration for startup logging
func (a *Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("jwt_secret_set", a.jwtSecret != ""),
		slog.String("no_auth", a.noAuth),
	)
}

// Configure builds the auth gate. Exactly one of jwt-secret or no-auth
// must be provided.
func (a *Auth) Configure() (*usecase.AuthUseCase, error) {
	if a.noAuth != "" {
		return usecase.NewNoAuthUseCase(a.noAuth), nil
	}
	if a.jwtSecret == "" {
		return nil, goerr.New("jwt-secret is required unless no-auth is set")
	}
	return usecase.NewAuthUseCase([]byte(a.jwtSecret)), nil
}
