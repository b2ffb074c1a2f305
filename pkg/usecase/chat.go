package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/service/llm"
	"github.com/kindred-lab/kindred/pkg/service/safety"
	"github.com/kindred-lab/kindred/pkg/service/search"
	"github.com/kindred-lab/kindred/pkg/utils/async"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

// ChatUseCase runs the chat-turn orchestration pipeline
type ChatUseCase struct {
	repo      interfaces.Repository
	auth      *AuthUseCase
	providers []interfaces.GenerationProvider
	extractor interfaces.GenerationProvider
	searcher  Searcher
	notifier  interfaces.GamificationNotifier
	limiter   *RateLimiter
	composer  *PromptComposer
	evo       evolutionParams
	draw      func() float64
	now       func() time.Time
}

// ChatOption configures the chat use case
type ChatOption func(*ChatUseCase)

// WithProviders sets the ranked generation chain. The built-in responder
// is appended automatically when absent so the chain always terminates.
func WithProviders(providers ...interfaces.GenerationProvider) ChatOption {
	return func(x *ChatUseCase) {
		x.providers = providers
	}
}

// WithExtractor sets the lightweight model used by post-processing
func WithExtractor(p interfaces.GenerationProvider) ChatOption {
	return func(x *ChatUseCase) {
		x.extractor = p
	}
}

// WithSearcher sets the retrieval cascade
func WithSearcher(s Searcher) ChatOption {
	return func(x *ChatUseCase) {
		x.searcher = s
	}
}

// WithNotifier sets the gamification collaborator
func WithNotifier(n interfaces.GamificationNotifier) ChatOption {
	return func(x *ChatUseCase) {
		x.notifier = n
	}
}

// WithRateLimiter replaces the admission gate
func WithRateLimiter(l *RateLimiter) ChatOption {
	return func(x *ChatUseCase) {
		x.limiter = l
	}
}

// WithPromptRules replaces the composer's rule data
func WithPromptRules(rules *PromptRules) ChatOption {
	return func(x *ChatUseCase) {
		x.composer = NewPromptComposer(rules)
	}
}

// WithDraw replaces the evolution roll's random source. Tests only.
func WithDraw(draw func() float64) ChatOption {
	return func(x *ChatUseCase) {
		x.draw = draw
	}
}

// WithClock replaces the pipeline clock. Tests only.
func WithClock(now func() time.Time) ChatOption {
	return func(x *ChatUseCase) {
		x.now = now
	}
}

// NewChatUseCase creates the chat pipeline
func NewChatUseCase(repo interfaces.Repository, auth *AuthUseCase, opts ...ChatOption) *ChatUseCase {
	x := &ChatUseCase{
		repo:     repo,
		auth:     auth,
		limiter:  NewRateLimiter(DefaultRateLimit, DefaultRateWindow),
		composer: NewPromptComposer(DefaultPromptRules()),
		evo:      defaultEvolutionParams(),
		draw:     defaultDraw,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}

	hasBuiltin := false
	for _, p := range x.providers {
		if p.ID() == types.ProviderBuiltin {
			hasBuiltin = true
		}
	}
	if !hasBuiltin {
		x.providers = append(x.providers, llm.NewBuiltin())
	}
	if x.extractor == nil && len(x.providers) > 0 {
		x.extractor = x.providers[0]
	}

	return x
}

// Suspended reports whether the global kill switch is active
func (x *ChatUseCase) Suspended(ctx context.Context) (bool, error) {
	state, err := x.repo.System().Get(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to read system state")
	}
	return state.KillSwitch, nil
}

// HandleTurn turns one user message into one assistant reply. When fn is
// non-nil, content deltas are forwarded through it and the returned reply
// carries the accumulated text.
func (x *ChatUseCase) HandleTurn(ctx context.Context, authorization string, req *model.ChatRequest, fn interfaces.StreamFunc) (*model.ChatReply, error) {
	logger := logging.From(ctx)

	token, err := x.auth.VerifyToken(ctx, authorization)
	if err != nil {
		return nil, err
	}

	state, err := x.repo.System().Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read system state")
	}
	if state.KillSwitch {
		return nil, goerr.Wrap(ErrServiceSuspended, state.Reason, goerr.V("reason", state.Reason))
	}

	if req.Message == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "message is empty")
	}
	if err := req.AgentID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "malformed agent ID", goerr.V("agent_id", req.AgentID))
	}

	agent, err := AuthorizeAgent(ctx, x.repo, token.Sub, req.AgentID)
	if err != nil {
		return nil, err
	}

	lang := x.resolveLang(req)

	filtered := safety.FilterInput(req.Message)
	if filtered.HasFlag(safety.FlagDanger) {
		logger.Warn("dangerous input blocked",
			"agent_id", agent.ID, "flags", filtered.Flags)
		return nil, goerr.Wrap(ErrContentBlocked, safety.Refusal(lang.String()),
			goerr.V("flags", filtered.Flags))
	}

	if !x.limiter.Allow(agent.ID) {
		return nil, goerr.Wrap(ErrRateLimited, "too many requests for this agent",
			goerr.V("agent_id", agent.ID))
	}

	knowledge := x.loadKnowledge(ctx, agent)

	searchCtx := ""
	if x.searcher != nil && search.NeedsSearch(filtered.Filtered) {
		searchCtx = x.searcher.Run(ctx, search.RewriteQuery(filtered.Filtered))
	}

	system := x.composer.Compose(agent, lang, knowledge, searchCtx, x.now())

	genReq := &model.GenerateRequest{
		System:    system,
		Turns:     buildTurns(knowledge.History, filtered.Filtered),
		MaxTokens: generateMaxTokens,
	}

	start := x.now()
	content, provider, err := x.generate(ctx, genReq, fn)
	if err != nil {
		return nil, err
	}
	latency := x.now().Sub(start).Milliseconds()

	content = safety.Sanitize(content)

	if err := x.repo.Conversation().Append(ctx,
		&model.ConversationMessage{
			AgentID: agent.ID,
			Role:    types.RoleUser,
			Content: filtered.Filtered,
			Channel: types.ChannelWeb,
		},
		&model.ConversationMessage{
			AgentID:   agent.ID,
			Role:      types.RoleAssistant,
			Content:   content,
			Channel:   types.ChannelWeb,
			Provider:  provider,
			LatencyMS: latency,
		},
	); err != nil {
		logger.Error("failed to persist turn", "agent_id", agent.ID, "error", err.Error())
	}

	x.dispatchPostProcessing(ctx, agent, filtered.Filtered, provider)

	return &model.ChatReply{
		Message:  content,
		Provider: provider,
		Reaction: detectReaction(content),
	}, nil
}

func (x *ChatUseCase) resolveLang(req *model.ChatRequest) types.Lang {
	if req.Locale != "" {
		return types.ParseLang(req.Locale)
	}
	return types.DetectLang(req.Message)
}

// buildTurns replays the recency window in chronological order and ends
// with the current user message.
func buildTurns(history []*model.ConversationMessage, userText string) []model.ChatTurn {
	turns := make([]model.ChatTurn, 0, len(history)+1)
	for i := len(history) - 1; i >= 0; i-- {
		turns = append(turns, model.ChatTurn{
			Role:    history[i].Role,
			Content: history[i].Content,
		})
	}
	return append(turns, model.ChatTurn{
		Role:    types.RoleUser,
		Content: userText,
	})
}

func (x *ChatUseCase) dispatchPostProcessing(ctx context.Context, agent *model.Agent, userText string, provider types.ProviderID) {
	async.Dispatch(ctx, func(ctx context.Context) error {
		x.runPostProcessing(ctx, agent, userText, provider)
		return nil
	})
}
