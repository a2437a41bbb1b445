package daemon

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/questforge/questforge/internal/api"
	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/health"
	"github.com/questforge/questforge/internal/infra/catalog"
	"github.com/questforge/questforge/internal/infra/memory"
	"github.com/questforge/questforge/internal/infra/postgres"
	"github.com/questforge/questforge/internal/infra/redis"
	"github.com/questforge/questforge/internal/infra/scheduler"
	"github.com/questforge/questforge/internal/infra/sqlite"
)

// Daemon is the questforge runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Logger  *zap.Logger
	Store   domain.DocumentStore
	Catalog *catalog.Catalog
	Engine  *engagement.Service
	Server  *api.Server
	Health  *health.Checker
	Jobs    *scheduler.Scheduler
}

// New loads the configuration and creates a Daemon.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg, logger)
}

// NewWithConfig creates a Daemon with the given configuration. A nil logger
// discards output.
func NewWithConfig(ctx context.Context, cfg Config, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, badges, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	clock, err := engagement.LoadClock(cfg.Clock.Timezone)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	engine := engagement.NewService(store, cat, badges, clock, logger,
		engagement.WithSessionCacheSize(cfg.Store.SessionCacheSize))

	jobs, err := scheduler.New(scheduler.Config{
		PruneSchedule: cfg.Jobs.PruneSchedule,
		RetentionDays: cfg.Jobs.RetentionDays,
	}, engine, clock, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	checker := health.NewChecker(store, cat, logger)

	apiCfg := api.DefaultConfig()
	apiCfg.CORSOrigins = cfg.API.CORSOrigins
	apiCfg.RateLimitRPS = cfg.API.RateLimitRPS
	apiCfg.RateLimitBurst = cfg.API.RateLimitBurst
	apiCfg.Metrics = cfg.Telemetry.Prometheus
	srv := api.NewServer(engine, cat, apiCfg, logger)
	srv.SetHealth(checker)

	logger.Info("daemon initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("timezone", clock.Location().String()),
		zap.Int("quests", cat.Len()),
		zap.Int("badges", len(engine.Badges())))

	return &Daemon{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Catalog: cat,
		Engine:  engine,
		Server:  srv,
		Health:  checker,
		Jobs:    jobs,
	}, nil
}

// OpenStore opens the document store named by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (domain.DocumentStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite, "":
		dir := cfg.Dir
		if dir == "" {
			dir = questforgeHome()
		}
		return sqlite.Open(dir)
	case DriverRedis:
		return redis.New(redis.Config{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			Namespace:  cfg.RedisNamespace,
			MaxRetries: cfg.MaxRetries,
		})
	case DriverPostgres:
		return postgres.New(ctx, postgres.Config{
			DSN:      cfg.PostgresDSN,
			MaxConns: cfg.PostgresMaxConns,
		})
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}

// LoadCatalog returns the configured catalog, or the built-in one when no
// file is set. Nil badges mean the default badge catalog.
func LoadCatalog(cfg CatalogConfig) (*catalog.Catalog, []domain.BadgeDefinition, error) {
	if cfg.File == "" {
		return catalog.Default(), nil, nil
	}
	cat, badges, err := catalog.LoadFile(cfg.File)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog %s: %w", cfg.File, err)
	}
	return cat, badges, nil
}

// Serve runs the API, health loop, and scheduled jobs until ctx is done or
// one of them fails, then releases the store.
func (d *Daemon) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.Server.ListenAndServe(ctx, d.Config.Addr())
	})
	g.Go(func() error {
		d.Health.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return d.Jobs.Run(ctx)
	})

	d.Logger.Info("serving",
		zap.String("addr", "http://"+d.Config.Addr()),
		zap.Bool("metrics", d.Config.Telemetry.Prometheus))

	err := g.Wait()
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the store and flushes the logger.
func (d *Daemon) Close() error {
	var err error
	if d.Store != nil {
		err = d.Store.Close()
	}
	_ = d.Logger.Sync()
	return err
}
