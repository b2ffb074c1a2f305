package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// Sentinel errors for account-level provider exhaustion. These abort the
// generation chain instead of falling through to the next provider.
var (
	ErrRateLimited    = errors.New("provider rate limited")
	ErrQuotaExhausted = errors.New("provider quota exhausted")
)

// Client is an OpenAI-compatible chat-completions provider. Both the
// primary and secondary generation endpoints speak this wire format.
type Client struct {
	id      types.ProviderID
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ interfaces.GenerationProvider = &Client{}

// New creates a generation provider client
func New(id types.ProviderID, baseURL, apiKey, modelName string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Client{
		id:      id,
		client:  openai.NewClientWithConfig(cfg),
		model:   modelName,
		timeout: timeout,
	}
}

func (c *Client) ID() types.ProviderID {
	return c.id
}

func toMessages(req *model.GenerateRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range req.Turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return msgs
}

// mapError converts provider HTTP status codes into the typed chain-abort
// errors. 429 and 402 indicate account exhaustion, not transient failure.
func (c *Client) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return goerr.Wrap(ErrRateLimited, "provider returned 429", goerr.V("provider", c.id))
		case http.StatusPaymentRequired:
			return goerr.Wrap(ErrQuotaExhausted, "provider returned 402", goerr.V("provider", c.id))
		}
	}
	return goerr.Wrap(err, "generation request failed", goerr.V("provider", c.id))
}

func (c *Client) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  toMessages(req),
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", goerr.New("provider returned no choices", goerr.V("provider", c.id))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GenerateStream(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  toMessages(req),
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", c.mapError(err)
	}
	defer stream.Close()

	var full []byte
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(full) > 0 {
				// the stream died mid-reply; return what arrived so the
				// caller does not re-run the whole chain
				return string(full), nil
			}
			return "", c.mapError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full = append(full, delta...)
		if fn != nil {
			if err := fn(delta); err != nil {
				return "", goerr.Wrap(err, "stream consumer failed", goerr.V("provider", c.id))
			}
		}
	}
	return string(full), nil
}
