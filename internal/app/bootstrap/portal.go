package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/medvault/patient-portal/internal/api/router"
	"github.com/medvault/patient-portal/internal/booking"
	appconfig "github.com/medvault/patient-portal/internal/config"
	"github.com/medvault/patient-portal/internal/http/handlers"
	httpmiddleware "github.com/medvault/patient-portal/internal/http/middleware"
	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/portalapi"
	"github.com/medvault/patient-portal/internal/portalcache"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/pkg/logging"
)

const defaultSweepInterval = time.Minute

// Portal is the assembled appointment engine behind the HTTP API.
type Portal struct {
	Client     *portalapi.Client
	Doctors    *portalcache.Doctors
	Wizards    *booking.Registry
	Reschedule *reschedule.Service
	// Limiter is nil when write throttling is disabled.
	Limiter *httpmiddleware.RateLimiter
	Handler *handlers.PortalHandler

	cfg    *appconfig.Config
	logger *logging.Logger
}

// BuildPortal wires the backend client, caches, wizard registry and
// reschedule service from cfg. redisClient may be nil.
func BuildPortal(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger, m *metrics.PortalMetrics) (*Portal, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if strings.TrimSpace(cfg.SessionJWTSecret) == "" {
		return nil, errors.New("bootstrap: SESSION_JWT_SECRET is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location()

	client := BuildPortalClient(cfg, logger, m)
	doctors := BuildDoctorCache(client, redisClient, cfg, logger, m)

	wizards := booking.NewRegistry(func(sess portal.Session) *booking.Wizard {
		return booking.NewWizard(client, client, sess, logger, m)
	}, cfg.WizardIdleTTL, logger)

	rescheduler := reschedule.NewService(client, loc, logger, reschedule.WithMetrics(m))

	var limiter *httpmiddleware.RateLimiter
	if cfg.WriteRatePerMinute > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst)
	}

	handler := handlers.NewPortalHandler(handlers.PortalConfig{
		Doctors:             doctors,
		Backend:             client,
		Wizards:             wizards,
		Reschedule:          rescheduler,
		Location:            loc,
		Logger:              logger,
		DoctorsPerPage:      cfg.DoctorsPerPage,
		AppointmentsPerPage: cfg.AppointmentsPerPage,
		EmergencyPerPage:    cfg.EmergencyPerPage,
	})

	logger.Info("portal engine wired",
		"backend", cfg.PortalAPIBaseURL,
		"timezone", loc.String(),
		"doctor_cache", redisClient != nil,
		"write_limit_per_minute", cfg.WriteRatePerMinute,
	)

	return &Portal{
		Client:     client,
		Doctors:    doctors,
		Wizards:    wizards,
		Reschedule: rescheduler,
		Limiter:    limiter,
		Handler:    handler,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Router returns the chi router serving the portal. metricsHandler may be nil.
func (p *Portal) Router(metricsHandler http.Handler) http.Handler {
	return router.New(&router.Config{
		Logger:             p.logger,
		Portal:             p.Handler,
		SessionJWTSecret:   p.cfg.SessionJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: p.cfg.CORSAllowedOrigins,
		WriteLimiter:       p.Limiter,
	})
}

// RunBackground sweeps idle wizards and rate-limit buckets until ctx is
// cancelled.
func (p *Portal) RunBackground(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Wizards.Run(ctx, interval)
		return nil
	})
	if p.Limiter != nil {
		g.Go(func() error {
			p.Limiter.Run(ctx, interval)
			return nil
		})
	}
	return g.Wait()
}
