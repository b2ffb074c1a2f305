package usecase

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

const (
	maxExtractedMemories = 3
	minMemoryKeyRunes    = 2

	personaEvolutionInterval  = 20
	personaEvolutionFirstTurn = 5
	personaHistoryWindow      = 30

	extractionMaxTokens = 300
)

func defaultDraw() float64 {
	return rand.Float64()
}

// runPostProcessing executes the detached side effects of a delivered
// turn. Every step is best-effort: a failure is logged and the remaining
// steps still run. Nothing here can affect the already-sent reply.
func (x *ChatUseCase) runPostProcessing(ctx context.Context, agent *model.Agent, userText string, provider types.ProviderID) {
	logger := logging.From(ctx)

	if err := x.extractMemories(ctx, agent, userText); err != nil {
		logger.Warn("memory extraction failed", "agent_id", agent.ID, "error", err.Error())
	}

	// cadence counts this turn, which is incremented just below
	turnCount := agent.TotalConversations + 1
	if turnCount == personaEvolutionFirstTurn || turnCount%personaEvolutionInterval == 0 {
		if err := x.evolvePersona(ctx, agent); err != nil {
			logger.Warn("persona evolution failed", "agent_id", agent.ID, "error", err.Error())
		}
	}

	updated, err := x.repo.Agent().IncrementStats(ctx, agent.ID, 1, x.evo.progressDelta)
	if err != nil {
		logger.Warn("stat update failed", "agent_id", agent.ID, "error", err.Error())
		updated = agent
	}

	if updated.EvolutionProgress >= 100 {
		gen, progress := x.evo.roll(
			updated.Generation,
			updated.Personality.Average(),
			updated.TotalConversations,
			x.draw(),
		)
		if err := x.repo.Agent().SetEvolution(ctx, agent.ID, gen, progress); err != nil {
			logger.Warn("evolution roll persist failed", "agent_id", agent.ID, "error", err.Error())
		} else if gen > updated.Generation {
			logger.Info("agent evolved", "agent_id", agent.ID, "generation", gen)
		}
	}

	if x.notifier != nil {
		if err := x.notifier.NotifyTurn(ctx, agent.ID, provider); err != nil {
			logger.Warn("gamification notify failed", "agent_id", agent.ID, "error", err.Error())
		}
	}
}

type extractedMemory struct {
	Category   string `json:"category"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

const extractionPrompt = `다음 사용자 메시지에서 기억할 만한 사실을 추출해.
JSON 배열로만 답해: [{"category":"...","key":"...","value":"...","confidence":0-100}]
category는 identity, preference, interest, relationship, goal, emotion, experience, style, knowledge_level 중 하나.
기억할 것이 없으면 []로 답해.`

// extractMemories asks the extraction model for structured facts and
// upserts at most three of them.
func (x *ChatUseCase) extractMemories(ctx context.Context, agent *model.Agent, userText string) error {
	if x.extractor == nil {
		return nil
	}

	raw, err := x.extractor.Generate(ctx, &model.GenerateRequest{
		System:    extractionPrompt,
		Turns:     []model.ChatTurn{{Role: types.RoleUser, Content: userText}},
		MaxTokens: extractionMaxTokens,
	})
	if err != nil {
		return err
	}

	items, err := parseExtractedMemories(raw)
	if err != nil {
		return err
	}

	count := 0
	for _, item := range items {
		if count >= maxExtractedMemories {
			break
		}
		category := types.MemoryCategory(item.Category)
		if !category.IsValid() {
			continue
		}
		if len([]rune(item.Key)) < minMemoryKeyRunes {
			continue
		}

		entry := &model.MemoryEntry{
			AgentID:    agent.ID,
			Category:   category,
			Key:        item.Key,
			Value:      item.Value,
			Confidence: item.Confidence,
		}
		entry.ClampConfidence()
		if err := x.repo.Memory().Upsert(ctx, entry); err != nil {
			return err
		}
		count++
	}
	return nil
}

// parseExtractedMemories tolerates prose around the JSON array, which
// small models emit routinely.
func parseExtractedMemories(raw string) ([]extractedMemory, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, nil
	}

	var items []extractedMemory
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, err
	}
	return items, nil
}

type personaProposal struct {
	Persona string          `json:"persona"`
	Domains map[string]bool `json:"domains"`
}

const personaEvolutionPrompt = `아래 대화를 보고 이 AI의 말투와 관심 분야를 제안해.
JSON으로만 답해: {"persona":"한 문장의 말투 설명","domains":{"crypto":false,"stocks":false,"forex":false,"commodities":false,"macro":false,"academic":false}}`

// evolvePersona summarizes the recent window and lets the model propose
// an updated persona string and domain toggles. Malformed output is
// discarded without touching the agent.
func (x *ChatUseCase) evolvePersona(ctx context.Context, agent *model.Agent) error {
	if x.extractor == nil {
		return nil
	}

	history, err := x.repo.Conversation().Recent(ctx, agent.ID, personaHistoryWindow)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	var transcript strings.Builder
	for i := len(history) - 1; i >= 0; i-- {
		transcript.WriteString(history[i].Role.String())
		transcript.WriteString(": ")
		transcript.WriteString(history[i].Content)
		transcript.WriteString("\n")
	}

	raw, err := x.extractor.Generate(ctx, &model.GenerateRequest{
		System:    personaEvolutionPrompt,
		Turns:     []model.ChatTurn{{Role: types.RoleUser, Content: transcript.String()}},
		MaxTokens: extractionMaxTokens,
	})
	if err != nil {
		return err
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	var proposal personaProposal
	if err := json.Unmarshal([]byte(raw[start:end+1]), &proposal); err != nil {
		return nil // malformed proposal is a silent skip, not an error
	}
	if proposal.Persona == "" {
		return nil
	}

	domains := make([]types.AnalysisDomain, 0, len(proposal.Domains))
	for name, enabled := range proposal.Domains {
		if !enabled {
			continue
		}
		if d := types.AnalysisDomain(name); d.IsValid() {
			domains = append(domains, d)
		}
	}

	return x.repo.Agent().UpdateSettings(ctx, agent.ID, proposal.Persona, domains)
}
