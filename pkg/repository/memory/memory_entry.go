package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type memoryKey struct {
	agentID  types.AgentID
	category types.MemoryCategory
	key      string
}

type memoryEntryRepository struct {
	mu      sync.RWMutex
	entries map[memoryKey]*model.MemoryEntry
}

func newMemoryEntryRepository() *memoryEntryRepository {
	return &memoryEntryRepository{
		entries: make(map[memoryKey]*model.MemoryEntry),
	}
}

func (r *memoryEntryRepository) Upsert(ctx context.Context, entry *model.MemoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *entry
	cp.ClampConfidence()
	cp.UpdatedAt = time.Now().UTC()
	r.entries[memoryKey{cp.AgentID, cp.Category, cp.Key}] = &cp
	return nil
}

func (r *memoryEntryRepository) ListTop(ctx context.Context, agentID types.AgentID, floor, limit int) ([]*model.MemoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.MemoryEntry, 0)
	for k, e := range r.entries {
		if k.agentID != agentID || e.Confidence < floor {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
