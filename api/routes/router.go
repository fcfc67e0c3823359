package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meghshyam-labs/vyapar-backend/api/controllers"
	ordercontrollers "github.com/meghshyam-labs/vyapar-backend/api/controllers/orders"
	"github.com/meghshyam-labs/vyapar-backend/api/middleware"
	"github.com/meghshyam-labs/vyapar-backend/internal/checkout"
	"github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/internal/payments"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
	"github.com/meghshyam-labs/vyapar-backend/pkg/metrics"
	"github.com/meghshyam-labs/vyapar-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	reg *metrics.Registry,
	checkoutService checkout.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(reg),
		middleware.Session(cfg.JWT, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", ordercontrollers.Create(checkoutService, cfg, logg))
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(ordersService, logg))
			r.Post("/payment-intent", ordercontrollers.CreateIntent(paymentsService, logg))
			r.Post("/payment-verify", ordercontrollers.VerifyPayment(paymentsService, logg))
			r.Patch("/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Post("/tracking", ordercontrollers.AddTracking(ordersService, logg))
		})
	})

	return r
}
