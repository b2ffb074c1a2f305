package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type conversationRepository struct {
	mu       sync.RWMutex
	messages map[types.AgentID][]*model.ConversationMessage
}

func newConversationRepository() *conversationRepository {
	return &conversationRepository{
		messages: make(map[types.AgentID][]*model.ConversationMessage),
	}
}

func (r *conversationRepository) Append(ctx context.Context, msgs ...*model.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range msgs {
		cp := *msg
		if cp.ID == "" {
			cp.ID = model.NewMessageID()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		r.messages[cp.AgentID] = append(r.messages[cp.AgentID], &cp)
	}
	return nil
}

func (r *conversationRepository) Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.ConversationMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.messages[agentID]
	if limit > len(log) {
		limit = len(log)
	}

	// newest first
	out := make([]*model.ConversationMessage, 0, limit)
	for i := len(log) - 1; i >= len(log)-limit; i-- {
		cp := *log[i]
		out = append(out, &cp)
	}
	return out, nil
}
