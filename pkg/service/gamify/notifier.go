package gamify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/utils/safe"
)

const notifyTimeout = 3 * time.Second

// Notifier posts turn events to the external gamification collaborator.
// Delivery is one-way and best-effort; the caller logs failures and
// never retries synchronously.
type Notifier struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ interfaces.GamificationNotifier = &Notifier{}

// New creates a gamification notifier
func New(endpoint, apiKey string) *Notifier {
	return &Notifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{},
	}
}

type turnEvent struct {
	Event    string `json:"event"`
	AgentID  string `json:"agent_id"`
	Provider string `json:"provider"`
}

func (n *Notifier) NotifyTurn(ctx context.Context, agentID types.AgentID, provider types.ProviderID) error {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	body, err := json.Marshal(turnEvent{
		Event:    "chat_turn",
		AgentID:  agentID.String(),
		Provider: provider.String(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal turn event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build notify request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return goerr.Wrap(err, "gamification notify failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return goerr.New("gamification notify rejected", goerr.V("status", resp.StatusCode))
	}
	return nil
}
