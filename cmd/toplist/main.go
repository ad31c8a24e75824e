package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/toplist/toplist/internal/api"
	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/config"
	"github.com/toplist/toplist/internal/health"
	"github.com/toplist/toplist/internal/livesearch"
	"github.com/toplist/toplist/internal/logger"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/metadata"
	"github.com/toplist/toplist/internal/scheduler"
	"github.com/toplist/toplist/internal/scheduler/tasks"
	"github.com/toplist/toplist/internal/session"
	"github.com/toplist/toplist/internal/startup"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting toplist")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	metadataService := metadata.NewService(cfg.Metadata, cfg.Search, log.Logger)
	backendClient := backend.NewClient(cfg.Backend, log.Logger)
	if !backendClient.IsConfigured() {
		log.Warn().Msg("backend URL or anon key missing, publishing is disabled")
	}

	sessions := session.NewStore(clock, log.Logger)
	healthService := health.NewService(clock, log.Logger)

	sched, err := scheduler.New(clock, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterSessionSweepTask(sched, sessions, &cfg.Sessions); err != nil {
		log.Fatal().Err(err).Msg("failed to register session sweep task")
	}
	healthTask := tasks.NewProviderHealthTask(metadataService, backendClient, healthService, log.Logger)
	if err := tasks.RegisterProviderHealthTask(sched, healthTask); err != nil {
		log.Fatal().Err(err).Msg("failed to register provider health task")
	}

	hub := livesearch.NewHub(metadataService, backendClient, log.Logger,
		livesearch.WithWindow(cfg.Search.DebounceWindow()),
		livesearch.WithMinQueryLength(cfg.Search.MinQueryLength),
	)
	go hub.Run(ctx)

	server := api.NewServer(cfg, api.Services{
		Metadata:  metadataService,
		Backend:   backendClient,
		Sessions:  sessions,
		Health:    healthService,
		Scheduler: sched,
		Hub:       hub,
		Clock:     clock,
	}, log.Logger)

	go func() {
		failed := startup.ProbeAll(ctx, []startup.Probe{
			{Name: "tmdb", Check: func(ctx context.Context) error { return metadataService.Test(ctx, media.TypeMovie) }},
			{Name: "google_books", Check: func(ctx context.Context) error { return metadataService.Test(ctx, media.TypeBook) }},
			{Name: "backend", Check: backendClient.Ping},
		}, startup.DefaultRetryConfig(), log.Logger)
		if len(failed) == 0 {
			log.Info().Msg("all external services reachable")
		}
	}()

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().
		Int("discardedCompositions", sessions.Len()).
		Msg("server stopped")
}
