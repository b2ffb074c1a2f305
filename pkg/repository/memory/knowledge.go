package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type topicRepository struct {
	mu     sync.RWMutex
	topics map[types.AgentID][]*model.LearnedTopic
}

func newTopicRepository() *topicRepository {
	return &topicRepository{
		topics: make(map[types.AgentID][]*model.LearnedTopic),
	}
}

func (r *topicRepository) Put(ctx context.Context, topic *model.LearnedTopic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *topic
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.topics[cp.AgentID] = append(r.topics[cp.AgentID], &cp)
	return nil
}

func (r *topicRepository) Recent(ctx context.Context, agentID types.AgentID, limit int) ([]*model.LearnedTopic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.topics[agentID]
	if limit > len(log) {
		limit = len(log)
	}

	out := make([]*model.LearnedTopic, 0, limit)
	for i := len(log) - 1; i >= len(log)-limit; i-- {
		cp := *log[i]
		out = append(out, &cp)
	}
	return out, nil
}

type insightRepository struct {
	mu       sync.RWMutex
	insights map[types.AgentID][]*model.ConversationInsight
}

func newInsightRepository() *insightRepository {
	return &insightRepository{
		insights: make(map[types.AgentID][]*model.ConversationInsight),
	}
}

func (r *insightRepository) Put(ctx context.Context, insight *model.ConversationInsight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *insight
	cp.Topics = append([]string(nil), insight.Topics...)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.insights[cp.AgentID] = append(r.insights[cp.AgentID], &cp)
	return nil
}

func (r *insightRepository) Latest(ctx context.Context, agentID types.AgentID) (*model.ConversationInsight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.insights[agentID]
	if len(log) == 0 {
		return nil, nil
	}
	cp := *log[len(log)-1]
	cp.Topics = append([]string(nil), cp.Topics...)
	return &cp, nil
}

type skillRepository struct {
	mu     sync.RWMutex
	skills map[string]*model.Skill
}

func newSkillRepository() *skillRepository {
	return &skillRepository{
		skills: make(map[string]*model.Skill),
	}
}

// PutSkill registers a skill definition. Only the in-memory backend
// exposes this; skill catalogs are managed externally in production.
func (m *Memory) PutSkill(skill *model.Skill) {
	m.skill.mu.Lock()
	defer m.skill.mu.Unlock()

	cp := *skill
	m.skill.skills[cp.ID] = &cp
}

func (r *skillRepository) List(ctx context.Context, ids []string) ([]*model.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Skill, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.skills[id]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}
