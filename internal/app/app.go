package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/database"
	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habits/internal/utils"
)

// App holds the wired services and the connections they depend on.
type App struct {
	Config  config.Application
	Repo    domain.HabitRepository
	Habits  *services.HabitService
	Streaks *services.StreakService
	Tokens  *services.TokenService
	Worker  *workers.SummaryWorker

	db        *sqlx.DB
	redis     *redis.Client
	startTime time.Time
}

// New opens the configured store and, when enabled, Redis. A Redis that cannot
// be reached is logged and skipped.
func New(cfg config.Application) (*App, error) {
	a := &App{Config: cfg, startTime: time.Now()}
	clock := utils.SystemClock{}

	repo, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}

	var summaries domain.SummaryCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warnf("[CACHE] Redis disabled: %v", err)
		} else {
			a.redis = rdb
			repo = repository.NewCachedHabitRepository(repo, rdb)
			summaries = cache.NewRedisSummaryCache(rdb, cache.DefaultSummaryTTL)
		}
	}
	a.Repo = repo

	a.Streaks = services.NewStreakService(repo, summaries, clock)

	opts := []services.HabitServiceOption{
		services.WithClock(clock),
		services.WithSummaryInvalidator(a.Streaks),
	}
	if cfg.Seed != 0 {
		opts = append(opts, services.WithRandomSource(services.NewSeededSource(cfg.Seed)))
	}
	if summaries != nil {
		a.Worker = workers.NewSummaryWorker(a.Streaks, 0)
		opts = append(opts, services.WithNotifier(a.Worker))
	}
	a.Habits = services.NewHabitService(repo, opts...)

	if cfg.Auth.Secret != "" {
		a.Tokens = services.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Owner, cfg.Auth.TokenTTL, clock)
	}

	return a, nil
}

func (a *App) openStore(cfg config.Application) (domain.HabitRepository, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Info("Using in-memory habit store")
		return repository.NewInMemoryHabitRepository(), nil
	case config.StoragePostgres:
		log.Println("Connecting to database...")
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("Database connected successfully.")
		a.db = db
		return repository.NewPostgresHabitRepository(db), nil
	case config.StorageJSON, "":
		log.Infof("Using habit file %s", cfg.Storage.File)
		return repository.NewJSONFileRepository(cfg.Storage.File)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Router builds the HTTP API on top of the wired services.
func (a *App) Router() *gin.Engine {
	checks := map[string]adapterHTTP.HealthCheck{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:  adapterHTTP.NewHabitHandler(a.Habits),
		StreakHandler: adapterHTTP.NewStreakHandler(a.Streaks),
		TokenService:  a.Tokens,
		Redis:         a.redis,
		RateLimit: middleware.RateLimit{
			Limit:  a.Config.Server.RateLimit,
			Window: a.Config.Server.RateWindow,
		},
		Checks:    checks,
		StartTime: a.startTime,
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down with a
// five second grace period.
func (a *App) Serve(ctx context.Context) error {
	if a.Worker != nil {
		a.Worker.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Kanso Habits running on http://localhost:%s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("Server stopped gracefully.")
	return nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warnf("closing redis: %v", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warnf("closing database: %v", err)
		}
	}
}
