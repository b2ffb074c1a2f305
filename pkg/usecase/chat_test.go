package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/repository/memory"
	"github.com/kindred-lab/kindred/pkg/service/llm"
	"github.com/kindred-lab/kindred/pkg/usecase"
)

type fakeProvider struct {
	mu      sync.Mutex
	id      types.ProviderID
	reply   string
	err     error
	deltas  []string
	calls   int
	systems []string
}

func (p *fakeProvider) ID() types.ProviderID { return p.id }

func (p *fakeProvider) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.systems = append(p.systems, req.System)
	return p.reply, p.err
}

func (p *fakeProvider) GenerateStream(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, error) {
	p.mu.Lock()
	p.calls++
	p.systems = append(p.systems, req.System)
	deltas := p.deltas
	reply := p.reply
	err := p.err
	p.mu.Unlock()

	if err != nil {
		return "", err
	}
	for _, d := range deltas {
		if ferr := fn(d); ferr != nil {
			return "", ferr
		}
	}
	return reply, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeSearcher struct {
	mu      sync.Mutex
	result  string
	queries []string
}

func (s *fakeSearcher) Run(ctx context.Context, query string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.result
}

// quiet is a do-nothing extractor so post-processing does not pollute the
// call counters of the providers under test.
func quietExtractor() *fakeProvider {
	return &fakeProvider{id: "extractor", reply: "[]"}
}

func putAgent(t *testing.T, repo *memory.Memory, agent *model.Agent) {
	t.Helper()
	gt.NoError(t, repo.Agent().Put(context.Background(), agent)).Required()
}

func newTestChat(repo *memory.Memory, opts ...usecase.ChatOption) *usecase.ChatUseCase {
	auth := usecase.NewNoAuthUseCase("user-1")
	base := []usecase.ChatOption{usecase.WithExtractor(quietExtractor())}
	return usecase.NewChatUseCase(repo, auth, append(base, opts...)...)
}

func TestHandleTurn_BuiltinGreeting(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	uc := newTestChat(repo)

	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "안녕!"}, nil)
	gt.NoError(t, err).Required()

	gt.Value(t, reply.Provider).Equal(types.ProviderBuiltin)
	gt.Array(t, llm.Candidates("안녕!")).Has(reply.Message)

	// both sides of the turn are persisted
	msgs, err := repo.Conversation().Recent(context.Background(), agent.ID, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(2)
	gt.Value(t, msgs[0].Role).Equal(types.RoleAssistant)
	gt.Value(t, msgs[0].Provider).Equal(types.ProviderBuiltin)
	gt.Value(t, msgs[1].Role).Equal(types.RoleUser)
	gt.Value(t, msgs[1].Content).Equal("안녕!")
}

func TestHandleTurn_KillSwitch(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)
	gt.NoError(t, repo.System().Set(context.Background(), &model.SystemState{
		KillSwitch: true,
		Reason:     "maintenance window",
	})).Required()

	p := &fakeProvider{id: types.ProviderPrimary, reply: "안 나가야 하는 답"}
	uc := newTestChat(repo, usecase.WithProviders(p))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "안녕"}, nil)
	gt.Bool(t, errors.Is(err, usecase.ErrServiceSuspended)).True()

	// nothing ran and nothing was written
	gt.Number(t, p.callCount()).Equal(0)
	msgs, err := repo.Conversation().Recent(context.Background(), agent.ID, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(0)
}

func TestHandleTurn_InputValidation(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)
	uc := newTestChat(repo)

	t.Run("empty message", func(t *testing.T) {
		_, err := uc.HandleTurn(context.Background(), "",
			&model.ChatRequest{AgentID: agent.ID, Message: ""}, nil)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})

	t.Run("malformed agent ID", func(t *testing.T) {
		_, err := uc.HandleTurn(context.Background(), "",
			&model.ChatRequest{AgentID: "not-a-uuid", Message: "안녕"}, nil)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})
}

func TestHandleTurn_Ownership(t *testing.T) {
	repo := memory.New()
	uc := newTestChat(repo)

	t.Run("unknown agent", func(t *testing.T) {
		_, err := uc.HandleTurn(context.Background(), "",
			&model.ChatRequest{AgentID: types.NewAgentID(), Message: "안녕"}, nil)
		gt.Bool(t, errors.Is(err, usecase.ErrAgentNotFound)).True()
	})

	t.Run("agent owned by someone else", func(t *testing.T) {
		other := testAgent()
		other.OwnerID = "someone-else"
		putAgent(t, repo, other)

		_, err := uc.HandleTurn(context.Background(), "",
			&model.ChatRequest{AgentID: other.ID, Message: "안녕"}, nil)
		gt.Bool(t, errors.Is(err, usecase.ErrForbidden)).True()
	})
}

func TestHandleTurn_DangerBlocksBeforeProviders(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	p := &fakeProvider{id: types.ProviderPrimary, reply: "호출되면 안 됨"}
	uc := newTestChat(repo, usecase.WithProviders(p))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "요즘 죽고 싶다는 생각이 들어"}, nil)
	gt.Bool(t, errors.Is(err, usecase.ErrContentBlocked)).True()

	gt.Number(t, p.callCount()).Equal(0)
	msgs, err := repo.Conversation().Recent(context.Background(), agent.ID, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(0)
}

func TestHandleTurn_RateLimit(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	uc := newTestChat(repo, usecase.WithRateLimiter(usecase.NewRateLimiter(1, time.Minute)))

	req := &model.ChatRequest{AgentID: agent.ID, Message: "오늘 뭐했어?"}
	_, err := uc.HandleTurn(context.Background(), "", req, nil)
	gt.NoError(t, err).Required()

	_, err = uc.HandleTurn(context.Background(), "", req, nil)
	gt.Bool(t, errors.Is(err, usecase.ErrRateLimited)).True()
}

func TestHandleTurn_SearchInjection(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	p := &fakeProvider{id: types.ProviderPrimary, reply: "비트코인은 지금 1억이야"}
	searcher := &fakeSearcher{result: "BTC 현재가 1억원"}
	uc := newTestChat(repo, usecase.WithProviders(p), usecase.WithSearcher(searcher))

	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "비트코인 가격 얼마야?"}, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, reply.Provider).Equal(types.ProviderPrimary)

	searcher.mu.Lock()
	queries := append([]string(nil), searcher.queries...)
	searcher.mu.Unlock()
	gt.Array(t, queries).Length(1)

	p.mu.Lock()
	system := p.systems[0]
	p.mu.Unlock()
	gt.Bool(t, strings.Contains(system, "BTC 현재가 1억원")).True()
}

func TestHandleTurn_NoSearchForSmallTalk(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	p := &fakeProvider{id: types.ProviderPrimary, reply: "나도 심심했어"}
	searcher := &fakeSearcher{result: "쓰이면 안 되는 결과"}
	uc := newTestChat(repo, usecase.WithProviders(p), usecase.WithSearcher(searcher))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "지금 심심해"}, nil)
	gt.NoError(t, err).Required()

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	gt.Array(t, searcher.queries).Length(0)
}

func TestHandleTurn_ProviderFallback(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	broken := &fakeProvider{id: types.ProviderPrimary, err: errors.New("connection refused")}
	backup := &fakeProvider{id: types.ProviderSecondary, reply: "두 번째 제공자의 답이야"}
	uc := newTestChat(repo, usecase.WithProviders(broken, backup))

	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "오늘 하루 어땠어?"}, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, reply.Provider).Equal(types.ProviderSecondary)
	gt.Value(t, reply.Message).Equal("두 번째 제공자의 답이야")
}

func TestHandleTurn_EmptyContentFallsToBuiltin(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	hollow := &fakeProvider{id: types.ProviderPrimary, reply: ""}
	uc := newTestChat(repo, usecase.WithProviders(hollow))

	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "뭐해?"}, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, reply.Provider).Equal(types.ProviderBuiltin)
}

func TestHandleTurn_QuotaAbortsChain(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	exhausted := &fakeProvider{id: types.ProviderPrimary, err: goerr.Wrap(llm.ErrQuotaExhausted, "402")}
	backup := &fakeProvider{id: types.ProviderSecondary, reply: "호출되면 안 됨"}
	uc := newTestChat(repo, usecase.WithProviders(exhausted, backup))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "오늘 어때?"}, nil)
	gt.Bool(t, errors.Is(err, usecase.ErrQuotaExhausted)).True()
	gt.Number(t, backup.callCount()).Equal(0)
}

func TestHandleTurn_ProviderRateLimitAborts(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	limited := &fakeProvider{id: types.ProviderPrimary, err: goerr.Wrap(llm.ErrRateLimited, "429")}
	backup := &fakeProvider{id: types.ProviderSecondary, reply: "호출되면 안 됨"}
	uc := newTestChat(repo, usecase.WithProviders(limited, backup))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "오늘 어때?"}, nil)
	gt.Bool(t, errors.Is(err, usecase.ErrRateLimited)).True()
	gt.Number(t, backup.callCount()).Equal(0)
}

func TestHandleTurn_Streaming(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	p := &fakeProvider{
		id:     types.ProviderPrimary,
		reply:  "안녕 반가워",
		deltas: []string{"안녕 ", "반가워"},
	}
	uc := newTestChat(repo, usecase.WithProviders(p))

	var got []string
	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "하이", Stream: true},
		func(delta string) error {
			got = append(got, delta)
			return nil
		})
	gt.NoError(t, err).Required()

	gt.Array(t, got).Length(2)
	gt.Value(t, strings.Join(got, "")).Equal("안녕 반가워")
	gt.Value(t, reply.Message).Equal("안녕 반가워")
	gt.Value(t, reply.Provider).Equal(types.ProviderPrimary)
}

// disconnectingProvider cancels the caller context mid-stream, the way a
// closed client connection does, and reports the cancellation.
type disconnectingProvider struct {
	fakeProvider
	cancel context.CancelFunc
}

func (p *disconnectingProvider) GenerateStream(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, error) {
	_ = fn("안녕 ")
	p.cancel()
	return "", ctx.Err()
}

func TestHandleTurn_ClientDisconnectAbortsTurn(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	primary := &disconnectingProvider{cancel: cancel}
	primary.id = types.ProviderPrimary
	backup := &fakeProvider{id: types.ProviderSecondary, reply: "호출되면 안 됨"}
	uc := newTestChat(repo, usecase.WithProviders(primary, backup))

	_, err := uc.HandleTurn(ctx, "",
		&model.ChatRequest{AgentID: agent.ID, Message: "얘기 들려줘", Stream: true},
		func(delta string) error { return nil })
	gt.Bool(t, errors.Is(err, context.Canceled)).True()

	// the abandoned turn leaves no trace: no fallback, no persistence,
	// no detached post-processing
	gt.Number(t, backup.callCount()).Equal(0)
	msgs, merr := repo.Conversation().Recent(context.Background(), agent.ID, 10)
	gt.NoError(t, merr).Required()
	gt.Array(t, msgs).Length(0)
	time.Sleep(50 * time.Millisecond)
	updated, aerr := repo.Agent().Get(context.Background(), agent.ID)
	gt.NoError(t, aerr).Required()
	gt.Number(t, updated.TotalConversations).Equal(0)
}

func TestHandleTurn_ReplySanitized(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	p := &fakeProvider{id: types.ProviderPrimary, reply: "**중요한 답**이야 <|im_end|>"}
	uc := newTestChat(repo, usecase.WithProviders(p))

	reply, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "알려줘"}, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, reply.Message).Equal("중요한 답이야")
}

// waitForAgent polls until the predicate holds or the deadline passes.
// Post-processing runs detached, so state changes land asynchronously.
func waitForAgent(t *testing.T, repo *memory.Memory, id types.AgentID, pred func(*model.Agent) bool) *model.Agent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		agent, err := repo.Agent().Get(context.Background(), id)
		gt.NoError(t, err).Required()
		if pred(agent) {
			return agent
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("agent did not reach expected state")
	return nil
}

func TestHandleTurn_EvolutionRollSuccess(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.EvolutionProgress = 97
	agent.TotalConversations = 10
	putAgent(t, repo, agent)

	uc := newTestChat(repo, usecase.WithDraw(func() float64 { return 0.0 }))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "오늘 재밌는 일 있었어"}, nil)
	gt.NoError(t, err).Required()

	updated := waitForAgent(t, repo, agent.ID, func(a *model.Agent) bool {
		return a.Generation == 2
	})
	gt.Number(t, updated.EvolutionProgress).Equal(0)
	gt.Number(t, updated.TotalConversations).Equal(11)
}

func TestHandleTurn_EvolutionRollNearMiss(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.EvolutionProgress = 97
	agent.TotalConversations = 10
	putAgent(t, repo, agent)

	uc := newTestChat(repo, usecase.WithDraw(func() float64 { return 0.99 }))

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "오늘 재밌는 일 있었어"}, nil)
	gt.NoError(t, err).Required()

	updated := waitForAgent(t, repo, agent.ID, func(a *model.Agent) bool {
		return a.EvolutionProgress == 80
	})
	gt.Number(t, updated.Generation).Equal(1)
}

func TestHandleTurn_ProgressAccruesBelowThreshold(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	agent.EvolutionProgress = 10
	putAgent(t, repo, agent)

	uc := newTestChat(repo)

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "잘 지냈어?"}, nil)
	gt.NoError(t, err).Required()

	updated := waitForAgent(t, repo, agent.ID, func(a *model.Agent) bool {
		return a.TotalConversations == 1
	})
	gt.Number(t, updated.EvolutionProgress).Equal(13)
	gt.Number(t, updated.Generation).Equal(1)
}

func TestHandleTurn_PIIRedactedBeforePersistence(t *testing.T) {
	repo := memory.New()
	agent := testAgent()
	putAgent(t, repo, agent)

	uc := newTestChat(repo)

	_, err := uc.HandleTurn(context.Background(), "",
		&model.ChatRequest{AgentID: agent.ID, Message: "내 번호 010-1234-5678 기억해줘"}, nil)
	gt.NoError(t, err).Required()

	msgs, err := repo.Conversation().Recent(context.Background(), agent.ID, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(2)
	gt.Bool(t, strings.Contains(msgs[1].Content, "010-1234-5678")).False()
	gt.Bool(t, strings.Contains(msgs[1].Content, "[전화번호 삭제]")).True()
}
