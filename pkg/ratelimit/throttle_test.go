package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleSpacesCalls(t *testing.T) {
	th := NewThrottle(1, 40*time.Millisecond)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		_, err := Do(ctx, th, func(ctx context.Context) (int, error) {
			stamps = append(stamps, time.Now())
			return i, nil
		})
		require.NoError(t, err)
	}

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		// allow a little scheduler slack below the nominal interval
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 35*time.Millisecond)
	}
}

func TestThrottleInterval(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, NewThrottle(2, time.Second).Interval())
	assert.Equal(t, time.Second, NewThrottle(0, 0).Interval())
}

func TestThrottleWaitHonoursContext(t *testing.T) {
	th := NewThrottle(1, time.Hour)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	_, err := Do(ctx, th, func(ctx context.Context) (int, error) {
		called = true
		return 0, nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestDoPassesThroughErrors(t *testing.T) {
	boom := errors.New("oracle down")
	_, err := Do(context.Background(), NewThrottle(100, time.Millisecond), func(ctx context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}
