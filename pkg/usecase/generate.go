package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/service/llm"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

const generateMaxTokens = 500

// generate walks the provider chain in fixed order and returns the first
// non-empty content. Account-level exhaustion (429/402) and a canceled
// caller context abort the chain immediately; any other failure falls
// through to the next provider. The chain ends with the built-in
// responder, which cannot fail.
func (x *ChatUseCase) generate(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, types.ProviderID, error) {
	logger := logging.From(ctx)

	for _, p := range x.providers {
		var content string
		var err error

		if fn != nil {
			content, err = p.GenerateStream(ctx, req, fn)
			if err != nil && !isQuotaAbort(err) && ctx.Err() == nil {
				// stream setup failed before any tokens; retry the same
				// provider without streaming
				logger.Warn("streaming failed, retrying non-streaming",
					"provider", p.ID(), "error", err.Error())
				content, err = p.Generate(ctx, req)
				if err == nil && content != "" {
					if ferr := fn(content); ferr != nil {
						return "", p.ID(), goerr.Wrap(ferr, "stream consumer failed")
					}
				}
			}
		} else {
			content, err = p.Generate(ctx, req)
		}

		if err != nil {
			if errors.Is(err, llm.ErrRateLimited) {
				return "", p.ID(), goerr.Wrap(ErrRateLimited, "provider rate limit", goerr.V("provider", p.ID()))
			}
			if errors.Is(err, llm.ErrQuotaExhausted) {
				return "", p.ID(), goerr.Wrap(ErrQuotaExhausted, "provider quota", goerr.V("provider", p.ID()))
			}
			// a canceled caller context means the client went away; the
			// abandoned turn must not fall through to another provider
			if cerr := ctx.Err(); cerr != nil {
				return "", p.ID(), goerr.Wrap(cerr, "generation aborted", goerr.V("provider", p.ID()))
			}
			logger.Warn("provider failed, falling through", "provider", p.ID(), "error", err.Error())
			continue
		}
		if content == "" {
			logger.Warn("provider returned empty content, falling through", "provider", p.ID())
			continue
		}
		return content, p.ID(), nil
	}

	return "", "", goerr.New("generation chain exhausted")
}

func isQuotaAbort(err error) bool {
	return errors.Is(err, llm.ErrRateLimited) || errors.Is(err, llm.ErrQuotaExhausted)
}

var (
	laughMarkers = []string{"ㅋㅋ", "ㅎㅎ", "haha", "lol", "笑"}

	// the standalone "www" laugh, anchored so hostnames like
	// www.example.com do not read as laughter
	laughWPattern = regexp.MustCompile(`(?:^|[^.\w])w{3,}(?:[^.\w]|$)`)
)

// detectReaction picks the post-turn expression tag from the reply text
func detectReaction(content string) types.Reaction {
	lower := strings.ToLower(content)
	for _, m := range laughMarkers {
		if strings.Contains(lower, m) {
			return types.ReactionHappy
		}
	}
	if laughWPattern.MatchString(lower) {
		return types.ReactionHappy
	}
	if strings.Contains(content, "!") || strings.Contains(content, "！") {
		return types.ReactionExcited
	}
	if strings.Contains(content, "?") || strings.Contains(content, "？") {
		return types.ReactionCurious
	}
	return types.ReactionCalm
}
