package config

import (
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/service/llm"
)

const (
	primaryTimeout   = 15 * time.Second
	secondaryTimeout = 12 * time.Second
)

// LLM holds CLI flags for the generation provider chain
type LLM struct {
	primaryBaseURL string
	primaryAPIKey  string
	primaryModel   string

	secondaryBaseURL string
	secondaryAPIKey  string
	secondaryModel   string

	extractionModel string
}

// Flags returns CLI flags for generation provider configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-primary-base-url",
			Usage:       "Base URL of the primary OpenAI-compatible endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_PRIMARY_BASE_URL"),
			Destination: &l.primaryBaseURL,
		},
		&cli.StringFlag{
			Name:        "llm-primary-api-key",
			Usage:       "API key for the primary endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_PRIMARY_API_KEY"),
			Destination: &l.primaryAPIKey,
		},
		&cli.StringFlag{
			Name:        "llm-primary-model",
			Usage:       "Model name served by the primary endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_PRIMARY_MODEL"),
			Destination: &l.primaryModel,
		},
		&cli.StringFlag{
			Name:        "llm-secondary-base-url",
			Usage:       "Base URL of the fallback OpenAI-compatible endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_SECONDARY_BASE_URL"),
			Destination: &l.secondaryBaseURL,
		},
		&cli.StringFlag{
			Name:        "llm-secondary-api-key",
			Usage:       "API key for the fallback endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_SECONDARY_API_KEY"),
			Destination: &l.secondaryAPIKey,
		},
		&cli.StringFlag{
			Name:        "llm-secondary-model",
			Usage:       "Model name served by the fallback endpoint",
			Sources:     cli.EnvVars("KINDRED_LLM_SECONDARY_MODEL"),
			Destination: &l.secondaryModel,
		},
		&cli.StringFlag{
			Name:        "llm-extraction-model",
			Usage:       "Model name for post-processing extraction (defaults to the primary model)",
			Sources:     cli.EnvVars("KINDRED_LLM_EXTRACTION_MODEL"),
			Destination: &l.extractionModel,
		},
	}
}

// LogValue renders the configuration for startup logging
func (l *LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("primary_base_url", l.primaryBaseURL),
		slog.String("primary_model", l.primaryModel),
		slog.String("secondary_base_url", l.secondaryBaseURL),
		slog.String("secondary_model", l.secondaryModel),
		slog.String("extraction_model", l.extractionModel),
	)
}

// Configure builds the ranked provider chain plus the extraction client.
// Unconfigured tiers are skipped; an empty chain is valid and leaves only
// the built-in responder.
func (l *LLM) Configure() ([]interfaces.GenerationProvider, interfaces.GenerationProvider) {
	var providers []interfaces.GenerationProvider
	var extractor interfaces.GenerationProvider

	if l.primaryBaseURL != "" && l.primaryModel != "" {
		providers = append(providers,
			llm.New(types.ProviderPrimary, l.primaryBaseURL, l.primaryAPIKey, l.primaryModel, primaryTimeout))
	}
	if l.secondaryBaseURL != "" && l.secondaryModel != "" {
		providers = append(providers,
			llm.New(types.ProviderSecondary, l.secondaryBaseURL, l.secondaryAPIKey, l.secondaryModel, secondaryTimeout))
	}

	if l.extractionModel != "" && l.primaryBaseURL != "" {
		extractor = llm.New(types.ProviderPrimary, l.primaryBaseURL, l.primaryAPIKey, l.extractionModel, secondaryTimeout)
	} else if len(providers) > 0 {
		extractor = providers[0]
	}

	return providers, extractor
}
