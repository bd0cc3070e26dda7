package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_RefillsPerSecond(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tb := NewTokenBucket(2, 1)
	tb.now = func() time.Time { return now }
	tb.lastRefill = now

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.GetRemaining())

	now = now.Add(time.Second)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 补充不超过容量
	now = now.Add(time.Minute)
	assert.Equal(t, 2, tb.GetRemaining())
}

func TestSlidingWindow_ExpiresOldRequests(t *testing.T) {
	now := time.Unix(1700000000, 0)
	sw := NewSlidingWindow(2, 10*time.Second)
	sw.now = func() time.Time { return now }

	assert.True(t, sw.Allow())
	now = now.Add(time.Second)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	now = now.Add(9500 * time.Millisecond)
	assert.Equal(t, 1, sw.GetRemaining())
	assert.True(t, sw.Allow())
}

func TestWait_RespectsContext(t *testing.T) {
	tb := NewTokenBucket(1, 0)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}

func TestManager_FallsBackToGeneral(t *testing.T) {
	m := NewManager()
	assert.Same(t, m.GetLimiter(EndpointGeneral), m.GetLimiter("unknown"))

	sw := NewSlidingWindow(1, time.Hour)
	m.Set(EndpointOrderPost, sw)
	assert.True(t, m.Allow(EndpointOrderPost))
	assert.False(t, m.Allow(EndpointOrderPost))
}
