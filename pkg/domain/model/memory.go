package model

import (
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// PromptConfidenceFloor is the minimum confidence for a memory entry to be
// eligible for prompt inclusion.
const PromptConfidenceFloor = 50

// MemoryEntry is one extracted fact about the user, keyed by
// (agent, category, key). Upserted by post-processing, read-only on the
// request path.
type MemoryEntry struct {
	AgentID    types.AgentID
	Category   types.MemoryCategory
	Key        string
	Value      string
	Confidence int // 0-100
	UpdatedAt  time.Time
}

// ClampConfidence forces the confidence score into [0, 100]
func (m *MemoryEntry) ClampConfidence() {
	if m.Confidence < 0 {
		m.Confidence = 0
	}
	if m.Confidence > 100 {
		m.Confidence = 100
	}
}
