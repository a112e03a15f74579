package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		allowed, remaining, _, err := l.CheckRateLimit(ctx, "ip:10.0.0.1", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 3-i, remaining)
	}

	allowed, remaining, reset, err := l.CheckRateLimit(ctx, "ip:10.0.0.1", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, reset.After(time.Now()))

	allowed, _, _, err = l.CheckRateLimit(ctx, "ip:10.0.0.2", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed, "clients are counted separately")
}
