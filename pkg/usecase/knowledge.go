package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

// Load bounds for one turn's knowledge aggregation
const (
	historyLimit = 10
	memoryLimit  = 20
	topicLimit   = 10
)

// loadKnowledge gathers everything the prompt composer reads, in
// parallel. A failed read degrades to an empty section rather than
// failing the turn.
func (x *ChatUseCase) loadKnowledge(ctx context.Context, agent *model.Agent) *model.Knowledge {
	k := &model.Knowledge{}
	logger := logging.From(ctx)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		history, err := x.repo.Conversation().Recent(ctx, agent.ID, historyLimit)
		if err != nil {
			logger.Warn("failed to load history", "agent_id", agent.ID, "error", err.Error())
			return nil
		}
		k.History = history
		return nil
	})

	eg.Go(func() error {
		memories, err := x.repo.Memory().ListTop(ctx, agent.ID, model.PromptConfidenceFloor, memoryLimit)
		if err != nil {
			logger.Warn("failed to load memories", "agent_id", agent.ID, "error", err.Error())
			return nil
		}
		k.Memories = memories
		return nil
	})

	eg.Go(func() error {
		topics, err := x.repo.Topic().Recent(ctx, agent.ID, topicLimit)
		if err != nil {
			logger.Warn("failed to load topics", "agent_id", agent.ID, "error", err.Error())
			return nil
		}
		k.Topics = topics
		return nil
	})

	eg.Go(func() error {
		insight, err := x.repo.Insight().Latest(ctx, agent.ID)
		if err != nil {
			logger.Warn("failed to load insight", "agent_id", agent.ID, "error", err.Error())
			return nil
		}
		k.Insight = insight
		return nil
	})

	eg.Go(func() error {
		if len(agent.Settings.SkillIDs) == 0 {
			return nil
		}
		skills, err := x.repo.Skill().List(ctx, agent.Settings.SkillIDs)
		if err != nil {
			logger.Warn("failed to load skills", "agent_id", agent.ID, "error", err.Error())
			return nil
		}
		k.Skills = skills
		return nil
	})

	// goroutines swallow their own errors, so Wait never fails
	_ = eg.Wait()

	return k
}
