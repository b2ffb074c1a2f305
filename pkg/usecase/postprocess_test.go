package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/repository/memory"
	"github.com/kindred-lab/kindred/pkg/usecase"
)

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestPostProcessing_MemoryExtraction(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	extractor := &fakeProvider{id: "extractor", reply: `추출 결과야: [
		{"category":"preference","key":"좋아하는 음식","value":"떡볶이","confidence":90},
		{"category":"nonsense","key":"무시될 항목","value":"x","confidence":80},
		{"category":"goal","key":"꿈","value":"마라톤 완주","confidence":150},
		{"category":"interest","key":"짧","value":"한 글자 키","confidence":70},
		{"category":"identity","key":"직업","value":"개발자","confidence":85},
		{"category":"emotion","key":"네 번째 유효 항목","value":"잘림","confidence":60}
	]`}
	uc := newTestChat(repo, usecase.WithExtractor(extractor))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "나 떡볶이 좋아하는 개발자야"}, nil)
	gt.NoError(t, err).Required()

	var entries []*model.MemoryEntry
	waitFor(t, func() bool {
		var lerr error
		entries, lerr = repo.Memory().ListTop(context.Background(), agent.ID, 0, 10)
		return lerr == nil && len(entries) == 3
	})

	// invalid category and short key are skipped; the cap stops at three
	byKey := map[string]*model.MemoryEntry{}
	for _, e := range entries {
		byKey[e.Key] = e
	}
	gt.Value(t, byKey["좋아하는 음식"].Value).Equal("떡볶이")
	gt.Value(t, byKey["직업"].Category).Equal(types.CategoryIdentity)
	gt.Number(t, byKey["꿈"].Confidence).Equal(100)
	_, skipped := byKey["네 번째 유효 항목"]
	gt.Bool(t, skipped).False()
}

func TestPostProcessing_PersonaEvolutionOnFifthTurn(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.TotalConversations = 4
	putAgent(t, repo, agent)

	extractor := &fakeProvider{id: "extractor",
		reply: `{"persona":"짧고 유쾌한 반말 말투","domains":{"crypto":true,"stocks":false,"unknown":true}}`}
	uc := newTestChat(repo, usecase.WithExtractor(extractor))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "요즘 코인 얘기가 재밌더라"}, nil)
	gt.NoError(t, err).Required()

	var updated *model.Agent
	waitFor(t, func() bool {
		var gerr error
		updated, gerr = repo.Agent().Get(context.Background(), agent.ID)
		return gerr == nil && updated.Settings.CustomPersona != ""
	})

	gt.Value(t, updated.Settings.CustomPersona).Equal("짧고 유쾌한 반말 말투")
	gt.Array(t, updated.Settings.Domains).Length(1)
	gt.Value(t, updated.Settings.Domains[0]).Equal(types.AnalysisDomain("crypto"))
}

func TestPostProcessing_NoPersonaEvolutionOffCadence(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.TotalConversations = 7
	putAgent(t, repo, agent)

	extractor := &fakeProvider{id: "extractor",
		reply: `{"persona":"적용되면 안 되는 말투","domains":{}}`}
	uc := newTestChat(repo, usecase.WithExtractor(extractor))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "그냥 수다 떨자"}, nil)
	gt.NoError(t, err).Required()

	// wait for the stat increment, then confirm the persona is untouched
	waitFor(t, func() bool {
		updated, gerr := repo.Agent().Get(context.Background(), agent.ID)
		return gerr == nil && updated.TotalConversations == 8
	})
	updated, err := repo.Agent().Get(context.Background(), agent.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, updated.Settings.CustomPersona).Equal("")
}

func TestPostProcessing_MalformedProposalIsSkipped(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.TotalConversations = 4
	putAgent(t, repo, agent)

	extractor := &fakeProvider{id: "extractor", reply: `{"persona": 이건 JSON이 아님}`}
	uc := newTestChat(repo, usecase.WithExtractor(extractor))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "안녕 잘 지냈어?"}, nil)
	gt.NoError(t, err).Required()

	waitFor(t, func() bool {
		updated, gerr := repo.Agent().Get(context.Background(), agent.ID)
		return gerr == nil && updated.TotalConversations == 5
	})
	updated, err := repo.Agent().Get(context.Background(), agent.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, updated.Settings.CustomPersona).Equal("")
}
