package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/toplist/toplist/internal/api/handlers"
	apimw "github.com/toplist/toplist/internal/api/middleware"
	"github.com/toplist/toplist/internal/backend"
	"github.com/toplist/toplist/internal/config"
	"github.com/toplist/toplist/internal/health"
	"github.com/toplist/toplist/internal/livesearch"
	"github.com/toplist/toplist/internal/metadata"
	"github.com/toplist/toplist/internal/publish"
	"github.com/toplist/toplist/internal/scheduler"
	"github.com/toplist/toplist/internal/session"
)

// livePath is the websocket endpoint of the live search.
const livePath = "/api/v1/search/live"

// Services are the components the API exposes.
type Services struct {
	Metadata  *metadata.Service
	Backend   *backend.Client
	Sessions  *session.Store
	Health    *health.Service
	Scheduler *scheduler.Scheduler
	Hub       *livesearch.Hub
	Clock     clockwork.Clock
}

// Server handles HTTP requests for the toplist API.
type Server struct {
	echo      *echo.Echo
	logger    zerolog.Logger
	cfg       *config.Config
	startedAt time.Time

	metadataService *metadata.Service
	backendClient   *backend.Client
	sessions        *session.Store
	healthService   *health.Service
	scheduler       *scheduler.Scheduler
	hub             *livesearch.Hub
	assembler       *publish.Assembler
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, svc Services, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	clock := svc.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Server{
		echo:            e,
		logger:          logger.With().Str("component", "api").Logger(),
		cfg:             cfg,
		startedAt:       clock.Now(),
		metadataService: svc.Metadata,
		backendClient:   svc.Backend,
		sessions:        svc.Sessions,
		healthService:   svc.Health,
		scheduler:       svc.Scheduler,
		hub:             svc.Hub,
		assembler:       publish.NewAssembler(svc.Backend, logger),
	}

	e.HTTPErrorHandler = s.httpErrorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket" ||
				strings.HasPrefix(c.Request().URL.Path, livePath)
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")

	api.GET("/status", s.getStatus)

	healthHandlers := health.NewHandlers(s.healthService)
	healthHandlers.RegisterRoutes(api.Group("/health"))

	searchGroup := api.Group("/search")
	metadataHandlers := metadata.NewHandlers(s.metadataService)
	metadataHandlers.RegisterRoutes(searchGroup)
	if s.hub != nil {
		searchGroup.GET("/live", s.hub.HandleWebSocket)
	}

	api.GET("/categories", s.listCategories)

	if s.scheduler != nil {
		schedulerHandler := handlers.NewSchedulerHandler(s.scheduler)
		tasks := api.Group("/scheduler/tasks")
		tasks.GET("", schedulerHandler.ListTasks)
		tasks.GET("/:id", schedulerHandler.GetTask)
		tasks.POST("/:id/run", schedulerHandler.RunTask)
	}

	compositions := api.Group("/compositions")
	compositions.POST("", s.createComposition)
	compositions.GET("/:id", s.getComposition)
	compositions.DELETE("/:id", s.discardComposition)

	compositions.POST("/:id/items", s.addItem)
	compositions.PATCH("/:id/items/:itemId", s.updateItem)
	compositions.DELETE("/:id/items/:itemId", s.removeItem)

	compositions.POST("/:id/reorder", s.reorder)
	compositions.POST("/:id/drag", s.replayDrag)
	compositions.POST("/:id/restore-order", s.restoreScoreOrder)
	compositions.POST("/:id/date-order", s.sortByDate)

	// Per-IP limit on backend submissions.
	publishLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(1),
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		}),
	})
	compositions.POST("/:id/publish", s.publishComposition, publishLimiter)

	api.PATCH("/rankings/:rankingId/items/:itemId/score", s.updateRankingItemScore)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// --- Handler implementations ---

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse describes the running service.
type StatusResponse struct {
	Version      string                  `json:"version"`
	StartTime    time.Time               `json:"startTime"`
	Compositions int                     `json:"compositions"`
	LiveClients  int                     `json:"liveClients"`
	Providers    metadata.ProviderStatus `json:"providers"`
	Backend      bool                    `json:"backend"`
	Health       *health.Summary         `json:"health,omitempty"`
}

func (s *Server) getStatus(c echo.Context) error {
	resp := StatusResponse{
		Version:      config.Version,
		StartTime:    s.startedAt,
		Compositions: s.sessions.Len(),
		Providers:    s.metadataService.Status(),
		Backend:      s.backendClient.IsConfigured(),
	}
	if s.hub != nil {
		resp.LiveClients = s.hub.ClientCount()
	}
	if s.healthService != nil {
		resp.Health = s.healthService.GetSummary()
	}
	return c.JSON(http.StatusOK, resp)
}

// listCategories returns the ranking categories.
// GET /api/v1/categories
func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.backendClient.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}
