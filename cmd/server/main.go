// Rodaje shooting-plan service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/rodaje/rodaje/internal/cache"
	"github.com/rodaje/rodaje/internal/config"
	"github.com/rodaje/rodaje/internal/database"
	"github.com/rodaje/rodaje/internal/handler"
	"github.com/rodaje/rodaje/internal/metrics"
	"github.com/rodaje/rodaje/internal/repository"
	"github.com/rodaje/rodaje/internal/routing/openrouteservice"
	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/scheduler"
)

// Build information, set through ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:      cfg.App.LogLevel,
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})

	if err := run(cfg); err != nil {
		logger.WithError(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	deps := handler.Deps{
		Defaults:  cfg.Planner,
		Checks:    make(map[string]handler.HealthCheck),
		Version:   Version,
		BuildTime: BuildTime,
	}

	if cfg.Database.Enabled() {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(ctx)
		cancel()
		if err != nil {
			return err
		}
		deps.Plans = repository.NewPlanRepository(db)
		deps.Distances = repository.NewDistanceRepository(db)
		deps.Checks["database"] = db.Health
	} else {
		logger.Warn().Msg("no database configured, plans are not persisted")
	}

	var provider distance.Provider
	if cfg.Routing.Enabled {
		provider = openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:  cfg.Routing.APIKey,
			BaseURL: cfg.Routing.BaseURL,
			Profile: cfg.Routing.Profile,
			Timeout: cfg.Routing.Timeout,
			Logger:  *logger.Get(),
		})

		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := cache.Ping(ctx, rdb); err != nil {
				logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cache lookups will fall through")
			}
			cancel()

			provider = cache.NewDistanceCache(rdb, provider, cfg.Redis.TTL)
			deps.Checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, rdb) }
		}
		logger.Info().Str("provider", provider.Name()).Msg("routing provider enabled")
	}
	deps.Provider = provider

	plannerOpts := []scheduler.Option{scheduler.WithAverageSpeed(cfg.Planner.AverageSpeedKmh)}
	if provider != nil {
		plannerOpts = append(plannerOpts, scheduler.WithDistanceProvider(provider))
	}
	deps.Planner = scheduler.NewPlanner(plannerOpts...)

	routerCfg := handler.RouterConfig{
		RateLimit: cfg.API.RateLimit,
		Timeout:   cfg.API.Timeout,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return err
		}
		if err := metrics.Register(reg); err != nil {
			return err
		}
		routerCfg.Metrics = metrics.Handler(reg)
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.NewRouter(handler.New(deps), routerCfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Bool("persistence", deps.Plans != nil).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
