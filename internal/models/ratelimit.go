package models

import "time"

// RateLimitState tracks attempts of one guarded action.
type RateLimitState struct {
	Attempts     int       `json:"attempts"`
	LastAttempt  time.Time `json:"last_attempt"`
	Blocked      bool      `json:"blocked"`
	BlockedUntil time.Time `json:"blocked_until"`
}
