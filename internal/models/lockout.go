package models

import (
	"math"
	"time"
)

// LockoutState tracks consecutive failed login attempts. LockedAt is set
// exactly when FailedAttempts reaches the configured threshold and cleared
// once the lockout window elapses.
type LockoutState struct {
	FailedAttempts int
	LockedAt       *time.Time
}

// Locked reports whether the lockout window is still in effect at now.
// Pure read; expired state is cleared separately by the store's reconcile.
func (s *LockoutState) Locked(now time.Time, window time.Duration) bool {
	if s.LockedAt == nil {
		return false
	}
	return now.Sub(*s.LockedAt) < window
}

// Remaining returns the whole seconds left in the lockout window, rounded
// up, floored at 0.
func (s *LockoutState) Remaining(now time.Time, window time.Duration) int64 {
	if s.LockedAt == nil {
		return 0
	}
	left := window - now.Sub(*s.LockedAt)
	if left <= 0 {
		return 0
	}
	return int64(math.Ceil(left.Seconds()))
}

// Expired reports whether a stamped lockout has run out and should be reset.
func (s *LockoutState) Expired(now time.Time, window time.Duration) bool {
	return s.LockedAt != nil && now.Sub(*s.LockedAt) >= window
}
