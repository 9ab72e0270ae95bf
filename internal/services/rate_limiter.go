package services

import (
	"sync"
	"time"

	"webstudio/internal/metrics"
	"webstudio/internal/models"
)

// Guarded action names.
const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

// RateLimitRule configures the attempt budget of one action.
type RateLimitRule struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// DefaultRateLimitRules returns the stock rules for login and registration.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		ActionLogin:    {MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 30 * time.Minute},
		ActionRegister: {MaxAttempts: 3, Window: time.Hour, BlockDuration: time.Hour},
	}
}

// RateLimiter guards identity-mutating actions against bursts of attempts.
type RateLimiter struct {
	rules     map[string]RateLimitRule
	states    map[string]*models.RateLimitState
	timers    map[string]*time.Timer
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer
	metrics   *metrics.Metrics
	mu        sync.Mutex
}

// NewRateLimiter creates a RateLimiter. A nil clock means time.Now.
func NewRateLimiter(rules map[string]RateLimitRule, now func() time.Time, m *metrics.Metrics) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		rules:     rules,
		states:    make(map[string]*models.RateLimitState),
		timers:    make(map[string]*time.Timer),
		now:       now,
		afterFunc: time.AfterFunc,
		metrics:   m,
	}
}

// CheckAllowed reports whether action may be attempted now.
// Expired blocks and elapsed windows reset the state as a side effect.
func (l *RateLimiter) CheckAllowed(action string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rule, ok := l.rules[action]
	if !ok {
		return true
	}
	st, ok := l.states[action]
	if !ok {
		return true
	}

	now := l.now()
	if st.Blocked {
		if now.Before(st.BlockedUntil) {
			return false
		}
		l.resetLocked(action)
		return true
	}
	if now.Sub(st.LastAttempt) > rule.Window {
		l.resetLocked(action)
		return true
	}
	return st.Attempts < rule.MaxAttempts
}

// RecordAttempt counts one attempt and blocks the action once the budget is spent.
func (l *RateLimiter) RecordAttempt(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rule, ok := l.rules[action]
	if !ok {
		return
	}
	st, ok := l.states[action]
	if !ok {
		st = &models.RateLimitState{}
		l.states[action] = st
	}

	now := l.now()
	st.Attempts++
	st.LastAttempt = now
	if st.Attempts >= rule.MaxAttempts && !st.Blocked {
		st.Blocked = true
		st.BlockedUntil = now.Add(rule.BlockDuration)
		l.metrics.RateLimitBlocked(action)
		l.scheduleResetLocked(action, rule.BlockDuration)
	}
}

// RemainingBlockTime returns how long action stays blocked, or 0.
func (l *RateLimiter) RemainingBlockTime(action string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[action]
	if !ok || !st.Blocked {
		return 0
	}
	if d := st.BlockedUntil.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// Reset force-clears the state of action.
func (l *RateLimiter) Reset(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(action)
}

// State returns a copy of the current state of action.
func (l *RateLimiter) State(action string) models.RateLimitState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.states[action]; ok {
		return *st
	}
	return models.RateLimitState{}
}

// Guard checks action and records the attempt.
// It returns a *RateLimitError without recording anything when the action is blocked.
func (l *RateLimiter) Guard(action string) error {
	if !l.CheckAllowed(action) {
		return &RateLimitError{Action: action, Remaining: l.RemainingBlockTime(action)}
	}
	l.RecordAttempt(action)
	return nil
}

func (l *RateLimiter) resetLocked(action string) {
	delete(l.states, action)
	if t, ok := l.timers[action]; ok {
		t.Stop()
		delete(l.timers, action)
	}
}

func (l *RateLimiter) scheduleResetLocked(action string, after time.Duration) {
	if t, ok := l.timers[action]; ok {
		t.Stop()
	}
	l.timers[action] = l.afterFunc(after, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only clear a block that has actually run out on the limiter's clock.
		if st, ok := l.states[action]; ok && st.Blocked && !l.now().Before(st.BlockedUntil) {
			delete(l.states, action)
			delete(l.timers, action)
		}
	})
}
