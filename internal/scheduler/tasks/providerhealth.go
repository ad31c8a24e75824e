package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/toplist/toplist/internal/health"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/scheduler"
)

// ProviderTester checks connectivity of the catalog serving a media type.
type ProviderTester interface {
	Test(ctx context.Context, mediaType media.Type) error
}

// BackendPinger checks connectivity of the persistence backend.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

type provider struct {
	id        string
	name      string
	mediaType media.Type
}

var providers = []provider{
	{id: "tmdb", name: "TMDB", mediaType: media.TypeMovie},
	{id: "google_books", name: "Google Books", mediaType: media.TypeBook},
}

const backendHealthID = "backend"

// ProviderHealthTask records whether the catalogs and the backend answer.
type ProviderHealthTask struct {
	metadata ProviderTester
	backend  BackendPinger
	health   *health.Service
	logger   zerolog.Logger
}

// NewProviderHealthTask creates a new provider health check task.
func NewProviderHealthTask(metadata ProviderTester, backend BackendPinger, healthService *health.Service, logger zerolog.Logger) *ProviderHealthTask {
	for _, p := range providers {
		healthService.RegisterItem(health.CategoryProviders, p.id, p.name)
	}
	healthService.RegisterItem(health.CategoryBackend, backendHealthID, "Backend")

	return &ProviderHealthTask{
		metadata: metadata,
		backend:  backend,
		health:   healthService,
		logger:   logger.With().Str("task", "provider-health").Logger(),
	}
}

// Run checks every dependency. Failures are recorded, not returned.
func (t *ProviderHealthTask) Run(ctx context.Context) error {
	for _, p := range providers {
		if err := t.metadata.Test(ctx, p.mediaType); err != nil {
			t.health.SetError(health.CategoryProviders, p.id, err.Error())
			t.logger.Warn().Err(err).Str("provider", p.id).Msg("Provider health check failed")
			continue
		}
		t.health.ClearStatus(health.CategoryProviders, p.id)
	}

	if err := t.backend.Ping(ctx); err != nil {
		t.health.SetError(health.CategoryBackend, backendHealthID, err.Error())
		t.logger.Warn().Err(err).Msg("Backend health check failed")
	} else {
		t.health.ClearStatus(health.CategoryBackend, backendHealthID)
	}

	return nil
}

// RegisterProviderHealthTask registers the health check to run on start and
// every 30 minutes.
func RegisterProviderHealthTask(sched *scheduler.Scheduler, task *ProviderHealthTask) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "provider-health",
		Name:        "Provider Health",
		Description: "Checks connectivity of the media catalogs and the backend",
		Cron:        "*/30 * * * *",
		RunOnStart:  true,
		Func:        task.Run,
	})
}
