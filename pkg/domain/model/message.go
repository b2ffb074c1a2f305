package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// MessageID is a UUID-based identifier for ConversationMessage
type MessageID string

// NewMessageID generates a new UUID v4 MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

// ConversationMessage is one entry of the append-only per-agent log.
// Immutable once persisted; ordered by CreatedAt.
type ConversationMessage struct {
	ID        MessageID
	AgentID   types.AgentID
	Role      types.Role
	Content   string
	Channel   types.Channel
	Provider  types.ProviderID // assistant messages only
	LatencyMS int64            // assistant messages only
	CreatedAt time.Time
}
