package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

type failingCacheRepo struct{ *memoryCacheRepo }

func (f *failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis down")
}

func TestCacheServiceHitMissMetrics(t *testing.T) {
	metrics := NewMetricsService()
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"v": 1}, 0))
	hit, err = cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, dest["v"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))

	require.NoError(t, cache.Invalidate(ctx, "k*"))
	hit, _ = cache.Get(ctx, "k", &dest)
	assert.False(t, hit)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	disabled := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false)
	hit, err := disabled.Get(ctx, "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, disabled.Set(ctx, "k", 1, 0))

	failing := NewCacheService(&failingCacheRepo{memoryCacheRepo: newMemoryCacheRepo()}, nil, 0, nil, true)
	hit, err = failing.Get(ctx, "k", &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestMetricsServiceSchedulingCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordAssignment("assign", OutcomeConflict)
	metrics.RecordAssignment("assign", OutcomeConflict)
	metrics.RecordConflicts([]models.Conflict{{Kind: models.ConflictSection}, {Kind: models.ConflictActivity}, {Kind: models.ConflictSection}})

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.assignmentOps.WithLabelValues("assign", OutcomeConflict)))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.conflictsDetected.WithLabelValues(string(models.ConflictSection))))

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() {
		nilMetrics.RecordAssignment("assign", OutcomeSuccess)
		nilMetrics.ObserveLockWait(true, time.Millisecond)
	})
}
