package services

import (
	"context"
	"log/slog"
	"time"
)

// LockoutStore defines the store operations the lockout policy needs.
type LockoutStore interface {
	IsLockedOut(ctx context.Context) bool
	RemainingLockout(ctx context.Context) int64
	ReconcileLockout(ctx context.Context) bool
	IncrementFailedAttempts(ctx context.Context) (int, error)
	ResetFailedAttempts(ctx context.Context) bool
	FailedAttempts(ctx context.Context) int
}

// LockoutPolicy holds configuration for failed-attempt lockout behavior.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Window            time.Duration
}

// DefaultLockoutPolicy is 5 attempts / 15 minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: 5,
		Window:            15 * time.Minute,
	}
}

// LockoutService implements failed-attempt lockout for login.
type LockoutService struct {
	store  LockoutStore
	policy LockoutPolicy
	logger *slog.Logger
}

// NewLockoutService creates a new LockoutService.
func NewLockoutService(store LockoutStore, policy LockoutPolicy, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// Status reports whether login is currently locked out and the whole
// seconds remaining. Read-only; call Reconcile first to clear expired state.
func (s *LockoutService) Status(ctx context.Context) (locked bool, remainingSeconds int64) {
	if !s.store.IsLockedOut(ctx) {
		return false, 0
	}
	return true, s.store.RemainingLockout(ctx)
}

// Reconcile clears lockout state whose window has elapsed.
func (s *LockoutService) Reconcile(ctx context.Context) bool {
	return s.store.ReconcileLockout(ctx)
}

// RecordFailure counts one failed login attempt and reports whether the
// account is now locked.
func (s *LockoutService) RecordFailure(ctx context.Context) (count int, locked bool, remainingSeconds int64, err error) {
	count, err = s.store.IncrementFailedAttempts(ctx)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		return 0, false, 0, err
	}
	if s.store.IsLockedOut(ctx) {
		return count, true, s.store.RemainingLockout(ctx), nil
	}
	return count, false, 0, nil
}

// RecordSuccess resets the failed-attempt counter after a successful login.
func (s *LockoutService) RecordSuccess(ctx context.Context) bool {
	return s.store.ResetFailedAttempts(ctx)
}
