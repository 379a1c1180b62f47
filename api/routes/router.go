package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafaelduartes/salescope-backend/api/controllers"
	"github.com/rafaelduartes/salescope-backend/api/middleware"
	"github.com/rafaelduartes/salescope-backend/internal/gateways"
	syncsvc "github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/config"
	"github.com/rafaelduartes/salescope-backend/pkg/db"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsGatherer prometheus.Gatherer,
	orchestrator *syncsvc.Orchestrator,
	gatewayRepo *gateways.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	triggerPolicy := middleware.NewSyncRateLimitPolicy(cfg.Sync.TriggerWindow, cfg.Sync.TriggerLimit)

	r.Route("/api/v1/gateways", func(r chi.Router) {
		r.Route("/{gatewayId}", func(r chi.Router) {
			r.With(middleware.SyncRateLimit(triggerPolicy, redisClient, logg)).
				Post("/sync", controllers.TriggerGatewaySync(orchestrator, logg))
			r.Get("/runs", controllers.ListGatewayRuns(gatewayRepo, logg))
		})
	})

	return r
}
