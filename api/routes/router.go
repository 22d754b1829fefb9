package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muscatcode/suqpos-backend/api/controllers"
	"github.com/muscatcode/suqpos-backend/api/middleware"
	"github.com/muscatcode/suqpos-backend/internal/audittrail"
	"github.com/muscatcode/suqpos-backend/internal/ledger"
	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/internal/vendorprofit"
	"github.com/muscatcode/suqpos-backend/pkg/config"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	postingService posting.Service,
	ledgerService ledger.Service,
	vendorService vendorprofit.Service,
	auditService audittrail.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/sales", controllers.PostSale(postingService, logg))
		r.Post("/returns", controllers.PostReturn(postingService, logg))
		r.Post("/cash-adjustments", controllers.PostCashAdjustment(postingService, logg))
		r.Post("/tax-settlements", controllers.PostTaxSettlement(postingService, logg))
		r.Post("/rental-income", controllers.PostRentalIncome(postingService, logg))

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/balance", controllers.LedgerBalance(ledgerService, cfg.Ledger.Currency, logg))
			r.Get("/entries", controllers.LedgerHistory(ledgerService, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/accumulated-profit", controllers.VendorAccumulatedProfit(vendorService, logg))
			r.Get("/transactions", controllers.VendorTransactionHistory(vendorService, logg))
		})

		r.Get("/audit-trail", controllers.AuditTrailHistory(auditService, logg))
	})

	return r
}
