package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/devteam-agent/internal/capability"
	"github.com/p-blackswan/devteam-agent/internal/config"
	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/githubapp"
	"github.com/p-blackswan/devteam-agent/internal/handoff"
	"github.com/p-blackswan/devteam-agent/internal/health"
	"github.com/p-blackswan/devteam-agent/internal/llm"
	"github.com/p-blackswan/devteam-agent/internal/mention"
	"github.com/p-blackswan/devteam-agent/internal/metrics"
	"github.com/p-blackswan/devteam-agent/internal/mgmt"
	"github.com/p-blackswan/devteam-agent/internal/orchestrator"
	"github.com/p-blackswan/devteam-agent/internal/persona"
	slackpkg "github.com/p-blackswan/devteam-agent/internal/slack"
	"github.com/p-blackswan/devteam-agent/pkg/tokenstore"
)

func main() {
	// Structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("routing_mode", cfg.RoutingMode).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Bool("github_enabled", cfg.GitHubEnabled()).
		Msg("starting devteam agent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	m := metrics.New()
	checker := health.NewChecker(logger)

	// Persona registry: roster file when configured, built-in team otherwise
	registry := persona.NewRegistry(logger)
	if cfg.PersonasFile != "" {
		if err := persona.LoadRoster(cfg.PersonasFile, registry); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.PersonasFile).Msg("failed to load persona roster")
		}
	} else if err := persona.RegisterDefaultTeam(registry); err != nil {
		logger.Fatal().Err(err).Msg("failed to register default team")
	}
	logger.Info().Int("personas", registry.Count()).Msg("persona roster loaded")

	// Conversation state
	historyStore := conversation.NewHistoryStore()
	tracker := conversation.NewTracker(logger)

	// GitHub capability provider
	if !cfg.GitHubEnabled() {
		logger.Fatal().Msg("GitHub credentials are required (GITHUB_TOKEN or GitHub App settings)")
	}
	var auth githubapp.Auth
	if cfg.GitHubAppEnabled() {
		store := tokenstore.NewMemoryStore()
		appAuth, err := githubapp.NewAppAuth(cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKeyPath, store, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init GitHub App auth")
		}
		auth = appAuth
	} else {
		auth = githubapp.NewTokenAuth(cfg.GitHubToken)
	}
	caps := capability.NewGitHubProvider(auth, cfg.GitHubOwner, cfg.GitHubRepo, logger)
	checker.Register("github", func(ctx context.Context) health.Status {
		if _, err := auth.Client(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Model provider
	if !cfg.ModelEnabled() {
		logger.Fatal().Msg("ANTHROPIC_API_KEY is required")
	}
	var modelOpts []llm.AnthropicOption
	if cfg.ModelID != "" {
		modelOpts = append(modelOpts, llm.WithModel(cfg.ModelID))
	}
	if cfg.ModelMaxTokens > 0 {
		modelOpts = append(modelOpts, llm.WithMaxTokens(cfg.ModelMaxTokens))
	}
	model := llm.NewAnthropicProvider(cfg.AnthropicAPIKey, logger, modelOpts...)

	// Routing core
	extractor := mention.NewExtractor(registry)
	mediator := handoff.NewMediator(registry, tracker, logger)

	// Slack transport
	if !cfg.SlackEnabled() {
		logger.Fatal().Msg("Slack tokens are required (AGENT_SLACK_BOT_TOKEN, AGENT_SLACK_APP_TOKEN)")
	}
	middleware := slackpkg.NewMiddleware(logger, cfg.RateLimitMax, cfg.RateLimitWindow)
	handler := slackpkg.NewHandler(middleware, logger)
	app, err := slackpkg.NewApp(cfg.SlackBotToken, cfg.SlackAppToken, logger, handler)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init Slack app")
	}
	poster := slackpkg.NewPoster(app.API(), logger)

	orch := orchestrator.New(orchestrator.Config{
		Registry:       registry,
		Extractor:      extractor,
		History:        historyStore,
		Tracker:        tracker,
		Mediator:       mediator,
		Model:          model,
		Caps:           caps,
		Transport:      poster,
		Metrics:        m,
		LenientRouting: cfg.LenientRouting(),
	}, logger)
	handler.SetRouter(orch)

	// HTTP server for health and metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Management API
	mgmtServer := mgmt.NewServer(registry, tracker, cfg.MgmtAPIKey, logger)
	go func() {
		if err := mgmtServer.Listen(cfg.MgmtListenAddr); err != nil {
			logger.Error().Err(err).Msg("management API error")
		}
	}()

	// Slack event loop
	go func() {
		if err := app.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("Slack app stopped")
			cancel()
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}
	if err := mgmtServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("management API shutdown error")
	}
	logger.Info().Msg("devteam agent stopped")
}
