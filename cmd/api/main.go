package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/muscatcode/suqpos-backend/api/routes"
	"github.com/muscatcode/suqpos-backend/internal/audittrail"
	"github.com/muscatcode/suqpos-backend/internal/ledger"
	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/internal/proration"
	"github.com/muscatcode/suqpos-backend/internal/vendorprofit"
	"github.com/muscatcode/suqpos-backend/pkg/config"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
	"github.com/muscatcode/suqpos-backend/pkg/migrate"
	"github.com/muscatcode/suqpos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	postingMetrics := metrics.NewPostingMetrics(prometheus.DefaultRegisterer)

	ledgerService, err := ledger.NewService(dbClient, ledger.NewRepository(dbClient.DB()), cfg.Ledger.AppendMaxRetries, postingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	vendorService, err := vendorprofit.NewService(dbClient, vendorprofit.NewRepository(dbClient.DB()), cfg.Ledger.AppendMaxRetries, postingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor profit service", err)
		os.Exit(1)
	}

	auditService, err := audittrail.NewService(audittrail.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit trail service", err)
		os.Exit(1)
	}

	rules, err := pricingRules(cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing rules", err)
		os.Exit(1)
	}

	postingService, err := posting.NewService(
		ledgerService,
		vendorService,
		auditService,
		posting.NewStateRepository(dbClient.DB()),
		posting.NewSoldProductRepository(dbClient.DB()),
		rules,
		postingMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create posting service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, postingService, ledgerService, vendorService, auditService),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}

func pricingRules(cfg *config.Config) (proration.PricingRules, error) {
	taxRate, err := cfg.Pricing.TaxRateDecimal()
	if err != nil {
		return proration.PricingRules{}, err
	}
	minimum, err := cfg.Pricing.CommissionMinimumDecimal()
	if err != nil {
		return proration.PricingRules{}, err
	}
	return proration.NewPricingRules(cfg.Pricing.TaxEnabled, taxRate, minimum)
}
