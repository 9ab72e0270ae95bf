package services_test

import (
	"errors"
	"testing"
	"time"

	"webstudio/internal/metrics"
	"webstudio/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_BlocksAtMaxAttempts(t *testing.T) {
	clock := newFakeClock()
	m := metrics.New(prometheus.NewRegistry())
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), clock.Now, m)

	for i := 0; i < 4; i++ {
		require.True(t, limiter.CheckAllowed(services.ActionLogin))
		limiter.RecordAttempt(services.ActionLogin)
	}
	assert.True(t, limiter.CheckAllowed(services.ActionLogin))
	assert.Zero(t, limiter.RemainingBlockTime(services.ActionLogin))

	limiter.RecordAttempt(services.ActionLogin)
	assert.False(t, limiter.CheckAllowed(services.ActionLogin))
	assert.Equal(t, 30*time.Minute, limiter.RemainingBlockTime(services.ActionLogin))

	st := limiter.State(services.ActionLogin)
	assert.True(t, st.Blocked)
	assert.Equal(t, 5, st.Attempts)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitBlocks.WithLabelValues(services.ActionLogin)))
}

func TestRateLimiter_BlockExpires(t *testing.T) {
	clock := newFakeClock()
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), clock.Now, nil)

	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(services.ActionRegister)
	}
	require.False(t, limiter.CheckAllowed(services.ActionRegister))

	clock.Advance(59 * time.Minute)
	assert.False(t, limiter.CheckAllowed(services.ActionRegister))
	assert.Equal(t, time.Minute, limiter.RemainingBlockTime(services.ActionRegister))

	clock.Advance(time.Minute)
	assert.True(t, limiter.CheckAllowed(services.ActionRegister))
	assert.Zero(t, limiter.State(services.ActionRegister).Attempts)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	clock := newFakeClock()
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), clock.Now, nil)

	for i := 0; i < 4; i++ {
		limiter.RecordAttempt(services.ActionLogin)
	}
	clock.Advance(16 * time.Minute)

	assert.True(t, limiter.CheckAllowed(services.ActionLogin))
	assert.Zero(t, limiter.State(services.ActionLogin).Attempts)
}

func TestRateLimiter_ActionsAreIndependent(t *testing.T) {
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), newFakeClock().Now, nil)

	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(services.ActionRegister)
	}
	assert.False(t, limiter.CheckAllowed(services.ActionRegister))
	assert.True(t, limiter.CheckAllowed(services.ActionLogin))
}

func TestRateLimiter_UnconfiguredActionAlwaysAllowed(t *testing.T) {
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), newFakeClock().Now, nil)

	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Guard("newsletter"))
	}
	assert.True(t, limiter.CheckAllowed("newsletter"))
}

func TestRateLimiter_ResetClearsBlock(t *testing.T) {
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), newFakeClock().Now, nil)
	for i := 0; i < 5; i++ {
		limiter.RecordAttempt(services.ActionLogin)
	}
	require.False(t, limiter.CheckAllowed(services.ActionLogin))

	limiter.Reset(services.ActionLogin)
	assert.True(t, limiter.CheckAllowed(services.ActionLogin))
	assert.Zero(t, limiter.RemainingBlockTime(services.ActionLogin))
}

func TestRateLimiter_Guard(t *testing.T) {
	clock := newFakeClock()
	limiter := services.NewRateLimiter(services.DefaultRateLimitRules(), clock.Now, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Guard(services.ActionLogin))
	}

	err := limiter.Guard(services.ActionLogin)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrRateLimited)

	var rlErr *services.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, services.ActionLogin, rlErr.Action)
	assert.Equal(t, 30*time.Minute, rlErr.Remaining)

	// A rejected attempt is not counted.
	assert.Equal(t, 5, limiter.State(services.ActionLogin).Attempts)
}
