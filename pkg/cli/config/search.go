package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/service/search"
)

// Search holds CLI flags for the retrieval cascade
type Search struct {
	answerEndpoint  string
	answerAPIKey    string
	answerModel     string
	instantEndpoint string
	htmlEndpoint    string
	disabled        bool
}

// Flags returns CLI flags for search configuration
func (s *Search) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "search-answer-endpoint",
			Usage:       "OpenAI-compatible answer API endpoint (tier skipped when empty)",
			Sources:     cli.EnvVars("KINDRED_SEARCH_ANSWER_ENDPOINT"),
			Destination: &s.answerEndpoint,
		},
		&cli.StringFlag{
			Name:        "search-answer-api-key",
			Usage:       "API key for the answer endpoint",
			Sources:     cli.EnvVars("KINDRED_SEARCH_ANSWER_API_KEY"),
			Destination: &s.answerAPIKey,
		},
		&cli.StringFlag{
			Name:        "search-answer-model",
			Usage:       "Model name for the answer endpoint",
			Sources:     cli.EnvVars("KINDRED_SEARCH_ANSWER_MODEL"),
			Destination: &s.answerModel,
		},
		&cli.StringFlag{
			Name:        "search-instant-endpoint",
			Usage:       "Instant answer API endpoint",
			Value:       "https://api.duckduckgo.com",
			Sources:     cli.EnvVars("KINDRED_SEARCH_INSTANT_ENDPOINT"),
			Destination: &s.instantEndpoint,
		},
		&cli.StringFlag{
			Name:        "search-html-endpoint",
			Usage:       "HTML search endpoint for the last-resort tier",
			Value:       "https://html.duckduckgo.com",
			Sources:     cli.EnvVars("KINDRED_SEARCH_HTML_ENDPOINT"),
			Destination: &s.htmlEndpoint,
		},
		&cli.BoolFlag{
			Name:        "search-disabled",
			Usage:       "Disable the retrieval cascade entirely",
			Sources:     cli.EnvVars("KINDRED_SEARCH_DISABLED"),
			Destination: &s.disabled,
		},
	}
}

// LogValue renders the configuration for startup logging
func (s *Search) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("disabled", s.disabled),
		slog.Bool("answer_tier", s.answerEndpoint != ""),
		slog.String("instant_endpoint", s.instantEndpoint),
		slog.String("html_endpoint", s.htmlEndpoint),
	)
}

// Configure builds the search cascade, or returns nil when retrieval is
// disabled.
func (s *Search) Configure() *search.Cascade {
	if s.disabled {
		return nil
	}

	var tiers []interfaces.SearchProvider
	if s.answerEndpoint != "" && s.answerModel != "" {
		tiers = append(tiers, search.NewAnswerClient(s.answerEndpoint, s.answerAPIKey, s.answerModel))
	}
	if s.instantEndpoint != "" {
		tiers = append(tiers, search.NewInstantClient(s.instantEndpoint))
	}
	if s.htmlEndpoint != "" {
		tiers = append(tiers, search.NewHTMLClient(s.htmlEndpoint))
	}
	if len(tiers) == 0 {
		return nil
	}

	return search.NewCascade(tiers...)
}
