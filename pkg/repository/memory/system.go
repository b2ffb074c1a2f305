package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/model"
)

type systemRepository struct {
	mu    sync.RWMutex
	state model.SystemState
}

func newSystemRepository() *systemRepository {
	return &systemRepository{}
}

func (r *systemRepository) Get(ctx context.Context) (*model.SystemState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := r.state
	return &cp, nil
}

func (r *systemRepository) Set(ctx context.Context, state *model.SystemState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = *state
	r.state.UpdatedAt = time.Now().UTC()
	return nil
}
