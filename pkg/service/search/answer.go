package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/utils/safe"
)

const (
	answerTimeout   = 8 * time.Second
	answerMaxTokens = 512
	answerCharCap   = 1200
	maxCitations    = 3
)

// AnswerClient is the primary retrieval tier: an answer-synthesis search
// API speaking the chat-completions wire format extended with a
// `citations` array. Decoded by hand because no standard client exposes
// that field.
type AnswerClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// NewAnswerClient creates the answer-synthesis search tier
func NewAnswerClient(endpoint, apiKey, model string) *AnswerClient {
	return &AnswerClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		http:     &http.Client{},
	}
}

func (c *AnswerClient) Name() string {
	return "answer"
}

type answerRequest struct {
	Model     string          `json:"model"`
	Messages  []answerMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type answerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type answerResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

func (c *AnswerClient) Search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	body, err := json.Marshal(answerRequest{
		Model: c.model,
		Messages: []answerMessage{
			{Role: "system", Content: "간결하게 핵심만 답해줘. 숫자, 날짜, 출처를 포함해."},
			{Role: "user", Content: query},
		},
		MaxTokens: answerMaxTokens,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal answer request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build answer request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "answer search request failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("answer search returned non-200", goerr.V("status", resp.StatusCode))
	}

	var data answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", goerr.Wrap(err, "failed to decode answer response")
	}
	if len(data.Choices) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(data.Choices[0].Message.Content)
	for i, cite := range data.Citations {
		if i >= maxCitations {
			break
		}
		b.WriteString(fmt.Sprintf("\n[%d] %s", i+1, cite))
	}

	return truncate(b.String(), answerCharCap), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
