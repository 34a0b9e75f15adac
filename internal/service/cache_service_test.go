package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type cacheRepoStub struct {
	values   map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (r *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.values[key] = raw
	r.ttls[key] = ttl
	return nil
}

func (r *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func TestCacheServiceNamespacesKeys(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, NewMetricsService(), nil, CacheOptions{Namespace: "timetable", DefaultTTL: time.Minute, Enabled: true})

	require.NoError(t, svc.Set(context.Background(), "catalog:subjects", []string{"math"}, 0))
	assert.Contains(t, repo.values, "timetable:catalog:subjects")
	assert.Equal(t, time.Minute, repo.ttls["timetable:catalog:subjects"])

	var got []string
	hit, err := svc.Get(context.Background(), "catalog:subjects", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"math"}, got)

	require.NoError(t, svc.Invalidate(context.Background(), "catalog:*"))
	assert.Equal(t, []string{"timetable:catalog:*"}, repo.patterns)
}

func TestCacheServiceMissAndFailure(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, CacheOptions{Enabled: true})

	var got []string
	hit, err := svc.Get(context.Background(), "catalog:none", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	repo.getErr = errors.New("connection reset")
	hit, err = svc.Get(context.Background(), "catalog:none", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, CacheOptions{Enabled: false})

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "k", 1, time.Second))
	assert.Empty(t, repo.values)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}
