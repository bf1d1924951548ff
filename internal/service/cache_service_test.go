package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_TTL(t *testing.T) {
	cs := NewCacheService(context.Background(), 0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }

	cs.Set("k", 1, time.Minute)
	v, ok := cs.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = cs.Get("k")
	assert.False(t, ok)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(context.Background(), 0)
	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cs.GetOrSet(context.Background(), "k", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	_, err := cs.GetOrSet(context.Background(), "err", time.Minute, func() (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	_, ok := cs.Get("err")
	assert.False(t, ok)
}

func TestCacheService_InvalidateRequestCache(t *testing.T) {
	cs := NewCacheService(context.Background(), 0)
	first, second := uuid.New(), uuid.New()
	cs.Set(CandidatesCacheKey(first), 1, time.Minute)
	cs.Set(CandidatesCacheKey(second), 2, time.Minute)

	cs.InvalidateRequestCache(first)

	_, ok := cs.Get(CandidatesCacheKey(first))
	assert.False(t, ok)
	_, ok = cs.Get(CandidatesCacheKey(second))
	assert.True(t, ok)
}

func TestCacheService_CleanupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cs := NewCacheService(ctx, 10*time.Millisecond)
	cs.Set("k", 1, time.Millisecond)

	assert.Eventually(t, func() bool {
		cs.mu.RLock()
		defer cs.mu.RUnlock()
		return len(cs.cache) == 0
	}, time.Second, 10*time.Millisecond)
	cancel()
}
