package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/service/gamify"
)

// Gamify holds CLI flags for the gamification webhook
type Gamify struct {
	endpoint string
	apiKey   string
}

// Flags returns CLI flags for gamification configuration
func (g *Gamify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gamify-endpoint",
			Usage:       "Gamification webhook endpoint (disabled when empty)",
			Sources:     cli.EnvVars("KINDRED_GAMIFY_ENDPOINT"),
			Destination: &g.endpoint,
		},
		&cli.StringFlag{
			Name:        "gamify-api-key",
			Usage:       "Bearer token for the gamification webhook",
			Sources:     cli.EnvVars("KINDRED_GAMIFY_API_KEY"),
			Destination: &g.apiKey,
		},
	}
}

// LogValue renders the configuration for startup logging
func (g *Gamify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", g.endpoint),
	)
}

// Configure returns the notifier, or nil when no endpoint is configured
func (g *Gamify) Configure() interfaces.GamificationNotifier {
	if g.endpoint == "" {
		return nil
	}
	return gamify.New(g.endpoint, g.apiKey)
}
