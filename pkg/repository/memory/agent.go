package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

type agentRepository struct {
	mu     sync.RWMutex
	agents map[types.AgentID]*model.Agent
}

func newAgentRepository() *agentRepository {
	return &agentRepository{
		agents: make(map[types.AgentID]*model.Agent),
	}
}

func copyAgent(a *model.Agent) *model.Agent {
	cp := *a
	cp.Settings.Domains = append([]types.AnalysisDomain(nil), a.Settings.Domains...)
	cp.Settings.SkillIDs = append([]string(nil), a.Settings.SkillIDs...)
	return &cp
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	return copyAgent(agent), nil
}

func (r *agentRepository) Put(ctx context.Context, agent *model.Agent) error {
	if err := agent.Validate(); err != nil {
		return goerr.Wrap(err, "invalid agent")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents[agent.ID] = copyAgent(agent)
	return nil
}

func (r *agentRepository) UpdateSettings(ctx context.Context, id types.AgentID, persona string, domains []types.AnalysisDomain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	agent.Settings.CustomPersona = persona
	agent.Settings.Domains = append([]types.AnalysisDomain(nil), domains...)
	return nil
}

func (r *agentRepository) IncrementStats(ctx context.Context, id types.AgentID, convDelta, progressDelta int) (*model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}

	agent.TotalConversations += convDelta
	agent.EvolutionProgress += progressDelta
	if agent.EvolutionProgress > 100 {
		agent.EvolutionProgress = 100
	}
	agent.LastActive = time.Now().UTC()

	return copyAgent(agent), nil
}

func (r *agentRepository) SetEvolution(ctx context.Context, id types.AgentID, generation, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	agent.Generation = generation
	agent.EvolutionProgress = progress
	return nil
}
