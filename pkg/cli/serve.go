package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kindred-lab/kindred/pkg/cli/config"
	httpctrl "github.com/kindred-lab/kindred/pkg/controller/http"
	"github.com/kindred-lab/kindred/pkg/usecase"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var promptRulesPath string
	var rateLimit int
	var rateWindow time.Duration
	var authCfg config.Auth
	var repoCfg config.Repository
	var llmCfg config.LLM
	var searchCfg config.Search
	var gamifyCfg config.Gamify

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("KINDRED_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "prompt-rules",
			Usage:       "Path to a TOML file overriding the embedded prompt rules",
			Sources:     cli.EnvVars("KINDRED_PROMPT_RULES"),
			Destination: &promptRulesPath,
		},
		&cli.IntFlag{
			Name:        "rate-limit",
			Usage:       "Maximum chat turns per agent per window",
			Value:       usecase.DefaultRateLimit,
			Sources:     cli.EnvVars("KINDRED_RATE_LIMIT"),
			Destination: &rateLimit,
		},
		&cli.DurationFlag{
			Name:        "rate-window",
			Usage:       "Sliding window for the per-agent rate limit",
			Value:       usecase.DefaultRateWindow,
			Sources:     cli.EnvVars("KINDRED_RATE_WINDOW"),
			Destination: &rateWindow,
		},
	}

	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, searchCfg.Flags()...)
	flags = append(flags, gamifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authUC.IsNoAuthn() {
				logging.Default().Warn("Running in no-auth mode (development only)")
			}

			providers, extractor := llmCfg.Configure()
			if len(providers) == 0 {
				logging.Default().Warn("No generation endpoint configured, only built-in replies are available")
			} else {
				logging.Default().Info("Generation providers configured", "llm", &llmCfg)
			}

			chatOpts := []usecase.ChatOption{
				usecase.WithProviders(providers...),
				usecase.WithRateLimiter(usecase.NewRateLimiter(rateLimit, rateWindow)),
			}
			if extractor != nil {
				chatOpts = append(chatOpts, usecase.WithExtractor(extractor))
			}

			if promptRulesPath != "" {
				raw, err := os.ReadFile(promptRulesPath)
				if err != nil {
					return goerr.Wrap(err, "failed to read prompt rules", goerr.V("path", promptRulesPath))
				}
				rules, err := usecase.ParsePromptRules(raw)
				if err != nil {
					return goerr.Wrap(err, "failed to parse prompt rules", goerr.V("path", promptRulesPath))
				}
				chatOpts = append(chatOpts, usecase.WithPromptRules(rules))
				logging.Default().Info("Prompt rules loaded", "path", promptRulesPath)
			}

			if cascade := searchCfg.Configure(); cascade != nil {
				chatOpts = append(chatOpts, usecase.WithSearcher(cascade))
				logging.Default().Info("Search cascade enabled", "search", &searchCfg)
			} else {
				logging.Default().Info("Search cascade disabled")
			}

			if notifier := gamifyCfg.Configure(); notifier != nil {
				chatOpts = append(chatOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Gamification notifier enabled", "gamify", &gamifyCfg)
			}

			chatUC := usecase.NewChatUseCase(repo, authUC, chatOpts...)
			uc := usecase.New(repo, authUC, chatUC)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			select {
			case sig := <-sigCh:
				logging.Default().Info("Received signal, shutting down", "signal", sig.String())
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logging.Default().Info("Server stopped")
			return nil
		},
	}
}
