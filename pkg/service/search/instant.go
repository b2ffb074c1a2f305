package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/utils/safe"
)

const (
	instantTimeout = 5 * time.Second
	instantCharCap = 800
	maxRelated     = 3
)

// InstantClient is the secondary retrieval tier: a structured
// instant-answer JSON API.
type InstantClient struct {
	endpoint string
	http     *http.Client
}

// NewInstantClient creates the instant-answer search tier
func NewInstantClient(endpoint string) *InstantClient {
	return &InstantClient{
		endpoint: endpoint,
		http:     &http.Client{},
	}
}

func (c *InstantClient) Name() string {
	return "instant"
}

type instantResponse struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (c *InstantClient) Search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, instantTimeout)
	defer cancel()

	u := c.endpoint + "/?q=" + url.QueryEscape(query) + "&format=json&no_html=1&skip_disambig=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to build instant request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "instant search request failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("instant search returned non-200", goerr.V("status", resp.StatusCode))
	}

	var data instantResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", goerr.Wrap(err, "failed to decode instant response")
	}

	parts := make([]string, 0, maxRelated+1)
	if data.AbstractText != "" {
		parts = append(parts, data.AbstractText)
	}
	for i, topic := range data.RelatedTopics {
		if i >= maxRelated {
			break
		}
		if topic.Text != "" {
			parts = append(parts, topic.Text)
		}
	}

	return truncate(strings.Join(parts, "\n"), instantCharCap), nil
}
