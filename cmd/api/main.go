package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/db"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	httpx "github.com/geocoder89/rentalhub/internal/http"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/redisclient"
	"github.com/geocoder89/rentalhub/internal/repo/memory"
	"github.com/geocoder89/rentalhub/internal/repo/postgres"
	"github.com/geocoder89/rentalhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			tctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	ready := map[string]handlers.Pinger{}

	stores, closeStores, err := openStores(ctx, cfg, log, prom, ready)
	if err != nil {
		return err
	}
	defer closeStores()

	var shuttingDown atomic.Bool

	deps := httpx.Deps{
		Config:       cfg,
		Log:          log,
		Prom:         prom,
		Stores:       stores,
		Ready:        ready,
		ShuttingDown: shuttingDown.Load,
	}

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx)
		cancel()

		if err != nil {
			// limits fall back to per-process counters
			log.Warn("redis unavailable, using in-process rate limits", "addr", cfg.RedisAddr, "err", err)
		} else {
			deps.Limiter = rdb
			deps.Lease = rdb
			ready["redis"] = rdb.Ping
		}
	}

	if cfg.NATSURL != "" {
		nn, err := notifications.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			log.Warn("nats unavailable, booking events go to the log", "url", cfg.NATSURL, "err", err)
		} else {
			defer nn.Close()
			deps.Notifier = notifications.NewProtectedNotifier(nn, notifications.ProtectedNotifierConfig{
				Timeout:          2 * time.Second,
				FailureThreshold: 5,
				Cooldown:         30 * time.Second,
			})
		}
	}

	// set up routers with the log
	router, err := httpx.NewRouter(deps)
	if err != nil {
		return err
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom, ready map[string]handlers.Pinger) (httpx.Stores, func(), error) {
	switch strings.ToLower(cfg.Storage) {
	case "memory":
		mdb := memory.NewDB()
		users := memory.NewUsersRepo(mdb)

		if err := seedMemoryAdmin(ctx, users, cfg); err != nil {
			return httpx.Stores{}, nil, fmt.Errorf("seed admin: %w", err)
		}
		log.Warn("using in-memory storage, data is lost on restart")

		return httpx.Stores{
			Users:    users,
			Cars:     memory.NewCarsRepo(mdb),
			Bookings: memory.NewBookingsRepo(mdb),
			Sessions: memory.NewSessionsRepo(mdb),
		}, func() {}, nil

	case "postgres":
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := db.NewPool(pctx, cfg.DBURL)
		if err != nil {
			return httpx.Stores{}, nil, fmt.Errorf("connect postgres: %w", err)
		}

		if cfg.AutoMigrate {
			if err := db.Migrate(pctx, pool); err != nil {
				pool.Close()
				return httpx.Stores{}, nil, fmt.Errorf("migrate: %w", err)
			}
		}

		created, err := db.EnsureAdminUser(pctx, pool, cfg)
		if err != nil {
			pool.Close()
			return httpx.Stores{}, nil, fmt.Errorf("seed admin: %w", err)
		}
		if created {
			log.Info("admin user created", "email", cfg.AdminEmail)
		}

		ready["postgres"] = pool.Ping

		return httpx.Stores{
			Users:    postgres.NewUsersRepo(pool, prom),
			Cars:     postgres.NewCarsRepo(pool, prom),
			Bookings: postgres.NewBookingsRepo(pool, prom),
			Sessions: postgres.NewSessionsRepo(pool, prom),
		}, pool.Close, nil

	default:
		return httpx.Stores{}, nil, fmt.Errorf("unknown APP_STORAGE %q", cfg.Storage)
	}
}

func seedMemoryAdmin(ctx context.Context, users *memory.UsersRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, user.User{
		Email:        security.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Name:         strings.TrimSpace(cfg.AdminName),
		Role:         user.RoleAdmin,
	})
	return err
}
