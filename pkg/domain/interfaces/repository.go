package interfaces

import (
	"context"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// Repository aggregates all persistence interfaces
type Repository interface {
	Agent() AgentRepository
	Conversation() ConversationRepository
	Memory() MemoryRepository
	Topic() TopicRepository
	Insight() InsightRepository
	Skill() SkillRepository
	System() SystemRepository
	Close() error
}

// AgentRepository manages companion agent records
type AgentRepository interface {
	Get(ctx context.Context, id types.AgentID) (*model.Agent, error)
	Put(ctx context.Context, agent *model.Agent) error
	UpdateSettings(ctx context.Context, id types.AgentID, persona string, domains []types.AnalysisDomain) error
	// IncrementStats atomically adds to the conversation counter and
	// evolution progress, returning the updated record. Concurrent turns
	// for the same agent must not lose increments.
	IncrementStats(ctx context.Context, id types.AgentID, convDelta, progressDelta int) (*model.Agent, error)
	// SetEvolution stores the outcome of an evolution roll
	SetEvolution(ctx context.Context, id types.AgentID, generation, progress int) error
}

// ConversationRepository is the append-only message log per agent
type ConversationRepository interface {
	Append(ctx context.Context, msgs ...*model.ConversationMessage) error
	// Recent returns up to limit messages, newest first
	Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.ConversationMessage, error)
}

// MemoryRepository stores extracted memory entries keyed by
// (agent, category, key)
type MemoryRepository interface {
	Upsert(ctx context.Context, entry *model.MemoryEntry) error
	// ListTop returns up to limit entries with confidence >= floor,
	// highest confidence first
	ListTop(ctx context.Context, agentID types.AgentID, floor, limit int) ([]*model.MemoryEntry, error)
}

// TopicRepository stores learned topics
type TopicRepository interface {
	Put(ctx context.Context, topic *model.LearnedTopic) error
	Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.LearnedTopic, error)
}

// InsightRepository stores conversation insights
type InsightRepository interface {
	Put(ctx context.Context, insight *model.ConversationInsight) error
	Latest(ctx context.Context, agentID types.AgentID) (*model.ConversationInsight, error)
}

// SkillRepository resolves installed skill references
type SkillRepository interface {
	List(ctx context.Context, ids []string) ([]*model.Skill, error)
}

// SystemRepository reads and writes the global system state
type SystemRepository interface {
	Get(ctx context.Context) (*model.SystemState, error)
	Set(ctx context.Context, state *model.SystemState) error
}
