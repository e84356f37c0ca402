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

	"address_search_backend/internal/adapters"
	"address_search_backend/internal/events"
	apphttp "address_search_backend/internal/http"
	"address_search_backend/internal/http/router"
	"address_search_backend/internal/maps"
	"address_search_backend/internal/selection"
	"address_search_backend/internal/session"
	"address_search_backend/platform/config"
	"address_search_backend/platform/logger"
	"address_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "provider", cfg.GetPlacesProvider())

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Event bus carrying selections from the sessions to their hosts
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	upstreams, err := adapters.NewUpstreams(cfg, log)
	if err != nil {
		log.Error("failed to initialize upstreams", "error", err)
		panic("failed to initialize upstreams: " + err.Error())
	}

	store, health, closeStore := initSelectionStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Selection store subscribes to session events (not HTTP-facing)
	selection.RegisterHandlers(eventBus, store, log)

	sessions := session.NewManager(upstreams.Provider, upstreams.Resolver, eventBus, log, session.ManagerOptionsFromConfig(cfg, cfg))

	mapsSvc, err := maps.NewService(upstreams.Provider, upstreams.Resolver, session.OptionsFromConfig(cfg).Request, val, log)
	if err != nil {
		log.Error("failed to initialize maps service", "error", err)
		panic("failed to initialize maps service: " + err.Error())
	}
	mapsModule := maps.NewModule(mapsSvc, sessions, store, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			mapsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(gctx)
	})
	if mem, ok := store.(*selection.MemoryStore); ok {
		g.Go(func() error {
			return mem.Run(gctx)
		})
	}
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	eventBus.Wait()
	log.Info("server stopped")
}

// initSelectionStore uses Redis when REDIS_URL is set and falls back to an
// in-process store otherwise.
func initSelectionStore(ctx context.Context, cfg config.SelectionStoreConfig, log *logger.Logger) (selection.Store, apphttp.HealthChecker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; selections are kept in memory")
		return selection.NewMemoryStore(cfg.GetSelectionTTL()), nil, nil
	}

	client, err := selection.NewRedisClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	store := selection.NewRedisStore(client, cfg.GetSelectionTTL())

	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return store.Ping(ctx)
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis selection store ready")

	return store, store, func() {
		_ = store.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
