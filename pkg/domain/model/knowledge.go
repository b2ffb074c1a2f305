package model

import (
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// LearnedTopic is a subject the agent has picked up from past searches
// and conversations.
type LearnedTopic struct {
	AgentID   types.AgentID
	Topic     string
	Summary   string
	Source    string
	CreatedAt time.Time
}

// ConversationInsight is the analysis of a past conversation batch,
// including a hint for opening the next conversation.
type ConversationInsight struct {
	AgentID        types.AgentID
	Topics         []string
	EmotionArc     string
	UnderlyingNeed string
	NextHint       string
	CreatedAt      time.Time
}

// Skill is an installed capability description injected into the prompt
type Skill struct {
	ID          string
	Name        string
	Description string
}

// Knowledge aggregates everything the prompt composer reads for one turn.
// Any field may be empty; the composer omits the matching section.
type Knowledge struct {
	History  []*ConversationMessage // newest first as loaded
	Memories []*MemoryEntry
	Topics   []*LearnedTopic
	Insight  *ConversationInsight
	Skills   []*Skill
}

// SystemState is the single global row holding the kill switch
type SystemState struct {
	KillSwitch bool
	Reason     string
	UpdatedAt  time.Time
}
