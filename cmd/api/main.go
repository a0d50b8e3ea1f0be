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

	"dealflow_backend/internal/deals"
	"dealflow_backend/internal/deals/policy"
	"dealflow_backend/internal/deals/service"
	"dealflow_backend/internal/email"
	"dealflow_backend/internal/events"
	apphttp "dealflow_backend/internal/http"
	"dealflow_backend/internal/http/router"
	"dealflow_backend/internal/notification"
	"dealflow_backend/internal/scheduler"
	"dealflow_backend/platform/config"
	"dealflow_backend/platform/db"
	"dealflow_backend/platform/lock"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/metrics"
	"dealflow_backend/platform/retry"
	"dealflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", retry.Startup, func(ctx context.Context) error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := retry.Do(ctx, log, "database migrations", retry.Policy{Attempts: 3, BaseDelay: 2 * time.Second}, func(ctx context.Context) error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	pol, err := policy.Load(cfg.GetEngagementPolicyFile())
	if err != nil {
		log.Error("failed to load engagement policy", "error", err)
		panic("failed to load engagement policy: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	metricsManager := metrics.NewManager(metrics.WithNamespace("dealflow"))
	val := validator.New()

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		log.Error("failed to initialize deal locker", "error", err)
		panic("failed to initialize deal locker: " + err.Error())
	}
	defer closeLocker()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	opts := []service.Option{
		service.WithMetrics(metricsManager),
		service.WithLocker(locker),
	}
	if overdueScheduler, closeScheduler := initOverdueScheduler(cfg, log); overdueScheduler != nil {
		defer closeScheduler()
		opts = append(opts, service.WithScheduler(overdueScheduler))
	}

	dealsModule := deals.NewModule(pool, eventBus, val, pol, log, opts...)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Metrics: metricsManager,
		Modules: []apphttp.Module{
			dealsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
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
		app.Drain()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	eventBus.Wait()
	log.Info("server stopped")
}

// newLocker picks the per-deal lock backend. The memory backend only
// serialises recomputes within this process.
func newLocker(cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.GetLockBackend() != "redis" {
		return lock.NewKeyedMutex(), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	return lock.NewRedisLocker(client, cfg.GetLockTTL()), func() { _ = client.Close() }, nil
}

func initOverdueScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; task overdue checks rely on the sweeper")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize overdue scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
