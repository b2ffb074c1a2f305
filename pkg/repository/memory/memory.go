package memory

import (
	"errors"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
)

// ErrNotFound indicates the requested record does not exist
var ErrNotFound = errors.New("not found")

// Memory is an in-memory Repository implementation for development and
// testing. All sub-repositories copy records in and out so callers can
// never mutate stored state through shared pointers.
type Memory struct {
	agent        *agentRepository
	conversation *conversationRepository
	memoryEntry  *memoryEntryRepository
	topic        *topicRepository
	insight      *insightRepository
	skill        *skillRepository
	system       *systemRepository
}

var _ interfaces.Repository = &Memory{}

// New creates a new in-memory repository
func New() *Memory {
	return &Memory{
		agent:        newAgentRepository(),
		conversation: newConversationRepository(),
		memoryEntry:  newMemoryEntryRepository(),
		topic:        newTopicRepository(),
		insight:      newInsightRepository(),
		skill:        newSkillRepository(),
		system:       newSystemRepository(),
	}
}

func (m *Memory) Agent() interfaces.AgentRepository {
	return m.agent
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memoryEntry
}

func (m *Memory) Topic() interfaces.TopicRepository {
	return m.topic
}

func (m *Memory) Insight() interfaces.InsightRepository {
	return m.insight
}

func (m *Memory) Skill() interfaces.SkillRepository {
	return m.skill
}

func (m *Memory) System() interfaces.SystemRepository {
	return m.system
}

func (m *Memory) Close() error {
	return nil
}
