package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheOptions configures a CacheService.
type CacheOptions struct {
	// Namespace is prepended to every key and invalidation pattern.
	Namespace  string
	DefaultTTL time.Duration
	Enabled    bool
}

// CacheService scopes cached catalog views under one namespace and reports
// hit ratios to the metrics service.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	opts    CacheOptions
	logger  *zap.Logger
}

// NewCacheService constructs a cache service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, logger *zap.Logger, opts CacheOptions) *CacheService {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 10 * time.Minute
	}
	if opts.Namespace != "" && !strings.HasSuffix(opts.Namespace, ":") {
		opts.Namespace += ":"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, opts: opts, logger: logger}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.opts.Enabled && s.repo != nil
}

func (s *CacheService) key(raw string) string {
	return s.opts.Namespace + raw
}

// Get looks key up and decodes it into dest. Misses are reported as (false, nil).
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	full := s.key(key)
	start := time.Now()
	err := s.repo.Get(ctx, full, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", full), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}
	full := s.key(key)
	start := time.Now()
	err := s.repo.Set(ctx, full, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", full), zap.Error(err))
	}
	return err
}

// Invalidate removes every key in the namespace matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	full := s.key(pattern)
	if err := s.repo.DeleteByPattern(ctx, full); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", full), zap.Error(err))
		return err
	}
	s.logger.Info("cache invalidated", zap.String("pattern", full))
	return nil
}
