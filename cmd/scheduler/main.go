package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dealflow_backend/internal/deals"
	"dealflow_backend/internal/deals/policy"
	"dealflow_backend/internal/deals/service"
	"dealflow_backend/internal/email"
	"dealflow_backend/internal/events"
	"dealflow_backend/internal/notification"
	"dealflow_backend/internal/scheduler"
	"dealflow_backend/platform/config"
	"dealflow_backend/platform/db"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/metrics"
	"dealflow_backend/platform/retry"
	"dealflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	pol, err := policy.Load(cfg.GetEngagementPolicyFile())
	if err != nil {
		log.Error("failed to load engagement policy", "error", err)
		panic("failed to load engagement policy: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Overdue alerts are mailed from this process; SSE pushes only reach
	// clients connected to the API.
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// Worker-side deal wiring (no HTTP handlers required).
	metricsManager := metrics.NewManager(metrics.WithNamespace("dealflow"), metrics.WithSubsystem("scheduler"))
	dealsModule := deals.NewModule(pool, eventBus, validator.New(), pol, log, service.WithMetrics(metricsManager))
	dealSvc := dealsModule.Service()

	sweeper := scheduler.NewOverdueSweeper(dealSvc, log, cfg.GetOverdueSweepInterval(), cfg.GetOverdueSweepBatch())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	if cfg.IsSchedulerEnabled() {
		worker, err := scheduler.NewWorker(cfg, dealSvc, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	} else {
		log.Warn("REDIS_URL not configured; running the overdue sweeper only")
	}

	_ = g.Wait()
	eventBus.Wait()
	log.Info("scheduler stopped")
}
