// Package portalcache keeps a read-through Redis copy of the approved-doctor
// directory so wizard sessions do not hit the backend on every page.
package portalcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

const (
	doctorsKey        = "medvault:doctors:approved"
	defaultDoctorsTTL = 5 * time.Minute
)

// DoctorSource is the backend the cache reads through to.
type DoctorSource interface {
	ListDoctors(ctx context.Context, sess portal.Session) ([]portal.Doctor, error)
}

// Doctors serves the doctor directory from Redis, falling back to the source.
// Redis failures degrade to a direct backend read; they never fail the call.
type Doctors struct {
	source  DoctorSource
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.PortalMetrics
	group   singleflight.Group
}

// NewDoctors wraps source. A nil redis client disables caching.
func NewDoctors(source DoctorSource, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.PortalMetrics) *Doctors {
	if ttl <= 0 {
		ttl = defaultDoctorsTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Doctors{
		source:  source,
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// ListDoctors returns the cached directory, loading it once per TTL.
// Concurrent misses share a single backend call.
func (d *Doctors) ListDoctors(ctx context.Context, sess portal.Session) ([]portal.Doctor, error) {
	if d.redis == nil {
		return d.source.ListDoctors(ctx, sess)
	}

	if doctors, ok := d.lookup(ctx); ok {
		d.metrics.ObserveDoctorCache(true)
		return doctors, nil
	}
	d.metrics.ObserveDoctorCache(false)

	// The shared load outlives any single caller; each caller waits on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(doctorsKey, func() (any, error) {
		doctors, err := d.source.ListDoctors(loadCtx, sess)
		if err != nil {
			return nil, err
		}
		d.store(loadCtx, doctors)
		return doctors, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]portal.Doctor), nil
	}
}

// Invalidate drops the cached directory.
func (d *Doctors) Invalidate(ctx context.Context) error {
	if d.redis == nil {
		return nil
	}
	if err := d.redis.Del(ctx, doctorsKey).Err(); err != nil {
		return fmt.Errorf("portalcache: invalidate doctors: %w", err)
	}
	return nil
}

func (d *Doctors) lookup(ctx context.Context) ([]portal.Doctor, bool) {
	data, err := d.redis.Get(ctx, doctorsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		d.logger.Warn("doctor cache read failed", "error", err)
		return nil, false
	}
	var doctors []portal.Doctor
	if err := json.Unmarshal(data, &doctors); err != nil {
		d.logger.Warn("doctor cache entry corrupt", "error", err)
		return nil, false
	}
	return doctors, true
}

func (d *Doctors) store(ctx context.Context, doctors []portal.Doctor) {
	data, err := json.Marshal(doctors)
	if err != nil {
		d.logger.Warn("doctor cache encode failed", "error", err)
		return
	}
	if err := d.redis.Set(ctx, doctorsKey, data, d.ttl).Err(); err != nil {
		d.logger.Warn("doctor cache write failed", "error", err)
	}
}
