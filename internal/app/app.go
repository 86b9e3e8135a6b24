// Package app assembles services, handlers and the router from a config and
// a repository set. Both the API binary and the end-to-end tests use it.
package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/email"
	authHandler "github.com/jwalitptl/vetclinic-api/internal/handler/auth"
	bookingHandler "github.com/jwalitptl/vetclinic-api/internal/handler/booking"
	catalogHandler "github.com/jwalitptl/vetclinic-api/internal/handler/catalog"
	customerHandler "github.com/jwalitptl/vetclinic-api/internal/handler/customer"
	"github.com/jwalitptl/vetclinic-api/internal/handler/health"
	inventoryHandler "github.com/jwalitptl/vetclinic-api/internal/handler/inventory"
	petHandler "github.com/jwalitptl/vetclinic-api/internal/handler/pet"
	scheduleHandler "github.com/jwalitptl/vetclinic-api/internal/handler/schedule"
	treatmentHandler "github.com/jwalitptl/vetclinic-api/internal/handler/treatment"
	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/router"
	authService "github.com/jwalitptl/vetclinic-api/internal/service/auth"
	bookingService "github.com/jwalitptl/vetclinic-api/internal/service/booking"
	catalogService "github.com/jwalitptl/vetclinic-api/internal/service/catalog"
	customerService "github.com/jwalitptl/vetclinic-api/internal/service/customer"
	dispensingService "github.com/jwalitptl/vetclinic-api/internal/service/dispensing"
	eventService "github.com/jwalitptl/vetclinic-api/internal/service/event"
	inventoryService "github.com/jwalitptl/vetclinic-api/internal/service/inventory"
	petService "github.com/jwalitptl/vetclinic-api/internal/service/pet"
	scheduleService "github.com/jwalitptl/vetclinic-api/internal/service/schedule"
	treatmentService "github.com/jwalitptl/vetclinic-api/internal/service/treatment"
	"github.com/jwalitptl/vetclinic-api/pkg/auth"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
	"github.com/jwalitptl/vetclinic-api/pkg/security"
	"github.com/jwalitptl/vetclinic-api/pkg/validator"
)

const metricsNamespace = "vetclinic"

// Deps are the pieces the caller owns: storage, the metrics registry and,
// optionally, a mailer. A nil Mailer means one is built from cfg.SMTP.
type Deps struct {
	Repos    *repository.Set
	DB       health.Pinger
	Registry *prometheus.Registry
	Mailer   email.Service
	Logger   *logger.Logger
}

// App is the wired API.
type App struct {
	Router  *router.Router
	Metrics *metrics.Metrics
	Auth    *authService.Service
}

func New(cfg *config.Config, deps Deps) *App {
	validator.Register()

	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := metrics.NewMetrics(metricsNamespace, deps.Registry)

	mailer := deps.Mailer
	if mailer == nil {
		mailer = email.NewService(cfg.SMTP, log)
	}

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		AccessTTL: cfg.JWT.AccessTTL,
		VerifyTTL: cfg.JWT.VerifyTTL,
		ResetTTL:  cfg.JWT.ResetTTL,
	})

	repos := deps.Repos
	events := eventService.NewEventService(repos.Outbox)

	authSvc := authService.NewService(repos.Users, jwtSvc, security.NewBcryptHasher(cfg.JWT.BcryptCost), mailer, cfg.Server.PublicURL, log)
	bookingSvc := bookingService.NewService(repos, events, cfg.Scheduling, m, log)
	scheduleSvc := scheduleService.NewService(repos, log)
	catalogSvc := catalogService.NewService(repos.Catalog, cfg.Catalog.CacheTTL)
	inventorySvc := inventoryService.NewService(repos.Medications)
	dispensingSvc := dispensingService.NewService(repos, events, m, log)
	treatmentSvc := treatmentService.NewService(repos, events, log)
	petSvc := petService.NewService(repos.Pets)
	customerSvc := customerService.NewService(repos.Users, log)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.AllowOrigins

	r := router.NewRouter(
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RequestTimeout: cfg.Server.RequestTimeout,
			RateLimit: middleware.RateLimiterConfig{
				RPS:   cfg.RateLimit.RPS,
				Burst: cfg.RateLimit.Burst,
			},
			CORSConfig:    cors,
			SizeLimit:     middleware.DefaultSizeLimitConfig(),
			MetricsPrefix: metricsNamespace,
			Registerer:    deps.Registry,
		},
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(deps.DB, deps.Registry),
		authHandler.NewHandler(authSvc),
		bookingHandler.NewHandler(bookingSvc),
		scheduleHandler.NewHandler(scheduleSvc),
		catalogHandler.NewHandler(catalogSvc, middleware.DefaultCacheConfig()),
		inventoryHandler.NewHandler(inventorySvc),
		petHandler.NewHandler(petSvc),
		customerHandler.NewHandler(customerSvc),
		treatmentHandler.NewHandler(treatmentSvc, dispensingSvc),
	)
	r.Setup()

	return &App{Router: r, Metrics: m, Auth: authSvc}
}
