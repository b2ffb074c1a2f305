package interfaces

import (
	"context"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// StreamFunc receives one content delta of a streaming generation
type StreamFunc func(delta string) error

// GenerationProvider is one member of the generation fallback chain.
// A provider exposes both a streaming and a non-streaming operation so
// the orchestrator does not duplicate its fallback order per mode.
type GenerationProvider interface {
	ID() types.ProviderID
	Generate(ctx context.Context, req *model.GenerateRequest) (string, error)
	GenerateStream(ctx context.Context, req *model.GenerateRequest, fn StreamFunc) (string, error)
}

// SearchProvider is one tier of the retrieval cascade. An empty result
// with a nil error means "nothing found, try the next tier".
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// GamificationNotifier delivers the fire-and-forget turn notification
type GamificationNotifier interface {
	NotifyTurn(ctx context.Context, agentID types.AgentID, provider types.ProviderID) error
}
