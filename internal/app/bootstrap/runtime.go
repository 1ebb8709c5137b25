package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/medvault/patient-portal/internal/config"
	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portalapi"
	"github.com/medvault/patient-portal/internal/portalcache"
	"github.com/medvault/patient-portal/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, doctor cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPortalClient returns the MedVault backend client.
func BuildPortalClient(cfg *appconfig.Config, logger *logging.Logger, m *metrics.PortalMetrics) *portalapi.Client {
	opts := []portalapi.Option{portalapi.WithMetrics(m)}
	baseURL := ""
	if cfg != nil {
		baseURL = cfg.PortalAPIBaseURL
		if cfg.PortalAPITimeout > 0 {
			opts = append(opts, portalapi.WithTimeout(cfg.PortalAPITimeout))
		}
	}
	return portalapi.NewClient(baseURL, logger, opts...)
}

// BuildDoctorCache fronts source with the Redis doctor cache. A nil client
// yields a pass-through cache.
func BuildDoctorCache(source portalcache.DoctorSource, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger, m *metrics.PortalMetrics) *portalcache.Doctors {
	var ttl time.Duration
	if cfg != nil {
		ttl = cfg.DoctorCacheTTL
	}
	if redisClient == nil && logger != nil {
		logger.Info("doctor cache running without redis")
	}
	return portalcache.NewDoctors(source, redisClient, ttl, logger, m)
}
