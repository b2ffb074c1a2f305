package usecase

import (
	"context"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
)

// Searcher runs the retrieval cascade for one query. An empty result
// means the prompt omits the search section; a Searcher never fails the
// turn.
type Searcher interface {
	Run(ctx context.Context, query string) string
}

// UseCases aggregates the application use cases
type UseCases struct {
	repo interfaces.Repository
	Auth *AuthUseCase
	Chat *ChatUseCase
}

// New creates the use case aggregate
func New(repo interfaces.Repository, auth *AuthUseCase, chat *ChatUseCase) *UseCases {
	return &UseCases{
		repo: repo,
		Auth: auth,
		Chat: chat,
	}
}
