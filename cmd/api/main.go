package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tracker000/gridtrack/internal/auth"
	"github.com/tracker000/gridtrack/internal/cache"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/db"
	httpx "github.com/tracker000/gridtrack/internal/http"
	"github.com/tracker000/gridtrack/internal/notifications"
	"github.com/tracker000/gridtrack/internal/observability"
	"github.com/tracker000/gridtrack/internal/repo/filestore"
	"github.com/tracker000/gridtrack/internal/repo/postgres"
	"github.com/tracker000/gridtrack/internal/session"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	// tracing is opt-in via OTLP_ENDPOINT
	tracing := false

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, "gridtrack-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed, continuing without tracing", "err", err)
		} else {
			tracing = true

			defer func() {
				sctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	tokens := auth.NewManager(cfg.TokenSecret, cfg.ResetTTL)

	// pick the persistence driver

	var (
		stores   httpx.Stores
		sessions *session.Manager
		ping     func() error
	)

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("could not connect to postgres", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		accounts := postgres.NewAccountsRepo(pool)
		managers := postgres.NewManagersRepo(pool)

		stores = httpx.Stores{
			Accounts: accounts,
			Profiles: accounts,
			Resets:   postgres.NewResetsRepo(pool),
			Managers: managers,
			Cells:    postgres.NewCellsRepo(pool),
		}

		sessions = session.NewManager(accounts, postgres.NewSessionsRepo(pool), tokens, cfg.SessionTTL)

		ping = func() error {
			pctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(pctx)
		}

		if err := db.EnsureAdminAccount(ctx, accounts, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}

	case "file":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			log.Error("could not create data dir", "err", err, "dir", cfg.DataDir)
			os.Exit(1)
		}

		accounts, err := filestore.NewAccounts(cfg.DataDir)
		if err != nil {
			log.Error("could not open accounts store", "err", err)
			os.Exit(1)
		}

		sessionRows, err := filestore.NewSessions(cfg.DataDir)
		if err != nil {
			log.Error("could not open sessions store", "err", err)
			os.Exit(1)
		}

		resets, err := filestore.NewResets(cfg.DataDir)
		if err != nil {
			log.Error("could not open resets store", "err", err)
			os.Exit(1)
		}

		managers, err := filestore.NewManagers(cfg.DataDir)
		if err != nil {
			log.Error("could not open managers store", "err", err)
			os.Exit(1)
		}

		cells, err := filestore.NewCells(cfg.DataDir, managers)
		if err != nil {
			log.Error("could not open cells store", "err", err)
			os.Exit(1)
		}

		stores = httpx.Stores{
			Accounts: accounts,
			Profiles: accounts,
			Resets:   resets,
			Managers: managers,
			Cells:    cells,
		}

		sessions = session.NewManager(accounts, sessionRows, tokens, cfg.SessionTTL)

		if err := db.EnsureAdminAccount(ctx, accounts, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}

	default:
		log.Error("unknown STORE_DRIVER", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	// cells listing cache: redis when configured, in-process otherwise

	var cacheStore cache.Store = cache.NewMemory(cfg.CellsCacheTTL)

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CellsCacheTTL,
		})

		pctx, cancel := config.WithTimeout(2 * time.Second)

		err := redisCache.Ping(pctx)

		cancel()

		if err != nil {
			log.Warn("redis unreachable, falling back to in-process cache", "err", err)
		} else {
			cacheStore = redisCache

			defer func() { _ = redisCache.Close() }()
		}
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Stores:   stores,
		Sessions: sessions,
		Tokens:   tokens,
		Cache:    cacheStore,
		Notifier: notifier,
		Prom:     observability.NewProm(prometheus.DefaultRegisterer),
		Ping:     ping,
		Tracing:  tracing,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(sctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
