package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/utils/safe"
)

const (
	htmlTimeout  = 5 * time.Second
	htmlCharCap  = 800
	maxSnippets  = 5
	htmlSelector = ".result__snippet"
)

// HTMLClient is the tertiary retrieval tier: plain HTML search results
// with snippets pulled out of the result list markup.
type HTMLClient struct {
	endpoint string
	http     *http.Client
}

// NewHTMLClient creates the HTML-scraping search tier
func NewHTMLClient(endpoint string) *HTMLClient {
	return &HTMLClient{
		endpoint: endpoint,
		http:     &http.Client{},
	}
}

func (c *HTMLClient) Name() string {
	return "html"
}

func (c *HTMLClient) Search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, htmlTimeout)
	defer cancel()

	u := c.endpoint + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to build html search request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; kindred/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "html search request failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("html search returned non-200", goerr.V("status", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse html results")
	}

	snippets := make([]string, 0, maxSnippets)
	doc.Find(htmlSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			snippets = append(snippets, text)
		}
		return len(snippets) < maxSnippets
	})

	return truncate(strings.Join(snippets, "\n"), htmlCharCap), nil
}
