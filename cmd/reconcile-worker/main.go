package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/muscatcode/suqpos-backend/internal/ledger"
	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/internal/reconcile"
	"github.com/muscatcode/suqpos-backend/pkg/config"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/idempotency"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
	"github.com/muscatcode/suqpos-backend/pkg/migrate"
	"github.com/muscatcode/suqpos-backend/pkg/redis"
)

const alertConsumer = "reconcile-alerts"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconcile-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Dedupes mismatch alerts across passes for the lookback window.
	alertGuard, err := idempotency.NewManager(redisClient, cfg.Reconcile.Lookback)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert guard", err)
		os.Exit(1)
	}

	reconcileMetrics := metrics.NewReconcileMetrics(prometheus.DefaultRegisterer)

	service, err := reconcile.New(
		posting.NewStateRepository(dbClient.DB()),
		ledger.NewRepository(dbClient.DB()),
		cfg.Reconcile.Lookback,
		logg,
		reconcileMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down reconcile worker")
		cancel()
	}()

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Reconcile.Interval.String(),
		"lookback": cfg.Reconcile.Lookback.String(),
	})
	logg.Info(runCtx, "starting reconcile worker")

	runOnce(ctx, logg, service, alertGuard)

	ticker := time.NewTicker(cfg.Reconcile.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logg.Info(runCtx, "reconcile worker stopped")
			return
		case <-ticker.C:
			runOnce(ctx, logg, service, alertGuard)
		}
	}
}

func runOnce(ctx context.Context, logg *logger.Logger, service *reconcile.Service, guard *idempotency.Manager) {
	report, err := service.Run(ctx)
	if err != nil {
		logg.Error(ctx, "reconcile pass failed", err)
		return
	}

	for _, mismatch := range report.Mismatches {
		seen, err := guard.CheckAndMarkProcessed(ctx, alertConsumer, mismatch.IdempotencyKey+"|"+mismatch.Stream)
		if err != nil {
			logg.Error(ctx, "failed to dedupe mismatch alert", err)
			continue
		}
		if seen {
			continue
		}
		alertCtx := logg.WithFields(ctx, map[string]any{
			"idempotency_key": mismatch.IdempotencyKey,
			"event_kind":      string(mismatch.EventKind),
			"stream":          mismatch.Stream,
			"detail":          mismatch.Detail,
		})
		logg.Warn(alertCtx, "mismatch.alert")
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"keys_checked": report.KeysChecked,
		"mismatches":   len(report.Mismatches),
	})
	logg.Info(ctx, "reconcile pass complete")
}
