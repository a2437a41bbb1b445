// Package api provides the HTTP surface of the progression engine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/health"
)

// Engine is the set of progression operations served over HTTP.
// *engagement.Service implements it.
type Engine interface {
	OnLogin(ctx context.Context, userID string) (domain.LoginResult, error)
	OnQuestSubmit(ctx context.Context, userID, questID string, attempt domain.QuestAttempt) (domain.SubmitResult, error)
	UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.ProfileResult, error)
	GetProgression(ctx context.Context, userID string) (domain.ProgressionView, error)
	GetOrCreateDailyChallenge(ctx context.Context, userID string, day domain.Day) (domain.DailyChallenge, error)
	Reroll(ctx context.Context, userID string, day domain.Day, seed int64) (domain.DailyChallenge, error)
	Badges() []domain.BadgeDefinition
}

// Config tunes the HTTP surface.
type Config struct {
	CORSOrigins    []string
	RateLimitRPS   float64 // per client IP; 0 disables limiting
	RateLimitBurst int
	RequestTimeout time.Duration
	Metrics        bool // mount /metrics
}

// DefaultConfig returns production API defaults.
func DefaultConfig() Config {
	return Config{
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		RequestTimeout: 30 * time.Second,
		Metrics:        true,
	}
}

// Server is the HTTP API server.
type Server struct {
	engine  Engine
	catalog domain.QuestCatalog
	health  *health.Checker
	cfg     Config
	logger  *zap.Logger
}

// NewServer creates a new API server.
func NewServer(engine Engine, catalog domain.QuestCatalog, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.Named("api"),
	}
}

// SetHealth attaches the health checker served on /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.Get("/health", s.handleHealth)
	if s.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(newIPRateLimiter(rate.Limit(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst).middleware)
		}

		r.Get("/quests", s.handleQuests)
		r.Get("/badges", s.handleBadges)
		r.Get("/levels", s.handleLevels)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/quests/{questID}/submit", s.handleSubmit)
			r.Get("/progression", s.handleProgression)
			r.Put("/profile", s.handleProfile)
			r.Get("/daily-challenge", s.handleDailyChallenge)
			r.Post("/daily-challenge/reroll", s.handleReroll)
		})
	})

	return r
}

// ListenAndServe serves the API on addr until ctx is done, then shuts the
// server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
