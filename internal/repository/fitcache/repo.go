// Package fitcache caches completed per-target fit results in a key-value
// store. The cache is best effort: backend failures are logged and treated
// as misses, never surfaced to the caller.
package fitcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/abhi0395/redrock/internal/db"
	domzfit "github.com/abhi0395/redrock/internal/domain/zfit"
)

// store is the narrow slice of db.Store the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo is the fit result cache.
type Repo struct {
	store   store
	ttl     time.Duration
	metrics *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a fit cache with the given entry TTL.
func New(s store, ttl time.Duration, m *prometheus.CounterVec, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, ttl: ttl, metrics: m, logger: logger}
}

// Get returns the cached result for key, or (nil, false) on a miss.
func (r *Repo) Get(ctx context.Context, key string) (*domzfit.FitResult, bool) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("fit cache read failed", zap.String("key", key), zap.Error(err))
		}
		r.metrics.WithLabelValues("miss").Inc()
		return nil, false
	}

	var res domzfit.FitResult
	if err := json.Unmarshal(data, &res); err != nil {
		r.logger.Warn("fit cache entry corrupt", zap.String("key", key), zap.Error(err))
		r.metrics.WithLabelValues("miss").Inc()
		return nil, false
	}
	r.metrics.WithLabelValues("hit").Inc()
	return &res, true
}

// Set stores a completed result under key with the configured TTL.
func (r *Repo) Set(ctx context.Context, key string, res *domzfit.FitResult) {
	data, err := json.Marshal(res)
	if err != nil {
		r.logger.Warn("fit cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("fit cache write failed", zap.String("key", key), zap.Error(err))
	}
}
