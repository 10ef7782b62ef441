// Package store implements the credential and session store on top of the
// two storage backends: the encrypted keychain for the credential slot and
// the plain key-value file for everything else.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mavelar/gatekeep/internal/keychain"
	"github.com/mavelar/gatekeep/internal/kvstore"
	"github.com/mavelar/gatekeep/internal/models"
)

// credentialService is the fixed keychain service identifier for the
// single credential slot.
const credentialService = "gatekeep-credentials"

// Fixed key-value store keys. Values under blob keys are JSON-encoded.
const (
	keyUserProfile    = "user_profile"
	keyDraft          = "registration_draft"
	keyFailedAttempts = "failed_attempts"
	keyLockedAt       = "lockout_timestamp"
	keySessionToken   = "session_token"
)

// Config holds the lockout policy knobs the store enforces.
type Config struct {
	MaxFailedAttempts int
	LockoutWindow     time.Duration
}

// Store is the single durable-state gateway for the authentication service.
// Read failures degrade to nil/false returns and a log line; they never
// propagate as faults.
type Store struct {
	keychain *keychain.Keychain
	kv       *kvstore.Store
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a store using the wall clock.
func New(kc *keychain.Keychain, kv *kvstore.Store, cfg Config, logger *slog.Logger) *Store {
	return NewWithClock(kc, kv, cfg, logger, time.Now)
}

// NewWithClock creates a store with an injected clock, used by tests and by
// anything that needs deterministic lockout math.
func NewWithClock(kc *keychain.Keychain, kv *kvstore.Store, cfg Config, logger *slog.Logger, now func() time.Time) *Store {
	return &Store{
		keychain: kc,
		kv:       kv,
		cfg:      cfg,
		logger:   logger,
		now:      now,
	}
}

// StoreCredentials writes the credential slot, replacing any prior value.
func (s *Store) StoreCredentials(ctx context.Context, email, passwordHash string) bool {
	if err := s.keychain.Set(credentialService, email, passwordHash); err != nil {
		s.logger.Error("failed to store credentials", slog.Any("error", err))
		return false
	}
	return true
}

// GetCredentials returns the stored credential, or nil if the slot was
// never set or cannot be read.
func (s *Store) GetCredentials(ctx context.Context) *models.Credential {
	email, hash, ok := s.keychain.Get(credentialService)
	if !ok {
		return nil
	}
	return &models.Credential{Email: email, PasswordHash: hash}
}

// ClearCredentials removes the credential slot.
func (s *Store) ClearCredentials(ctx context.Context) bool {
	if err := s.keychain.Reset(credentialService); err != nil {
		s.logger.Error("failed to clear credentials", slog.Any("error", err))
		return false
	}
	return true
}

// StoreUserProfile persists the profile blob.
func (s *Store) StoreUserProfile(ctx context.Context, profile *models.UserProfile) bool {
	return s.setJSON(keyUserProfile, profile, "user profile")
}

// GetUserProfile returns the stored profile, or nil.
func (s *Store) GetUserProfile(ctx context.Context) *models.UserProfile {
	var profile models.UserProfile
	if !s.getJSON(keyUserProfile, &profile, "user profile") {
		return nil
	}
	return &profile
}

// ClearUserProfile removes the profile blob.
func (s *Store) ClearUserProfile(ctx context.Context) bool {
	return s.remove(keyUserProfile, "user profile")
}

// StoreRegistrationDraft persists the partial registration form. The draft
// type has no password field, so secrets cannot end up here.
func (s *Store) StoreRegistrationDraft(ctx context.Context, draft *models.RegistrationDraft) bool {
	return s.setJSON(keyDraft, draft, "registration draft")
}

// GetRegistrationDraft returns the saved draft, or nil.
func (s *Store) GetRegistrationDraft(ctx context.Context) *models.RegistrationDraft {
	var draft models.RegistrationDraft
	if !s.getJSON(keyDraft, &draft, "registration draft") {
		return nil
	}
	return &draft
}

// ClearRegistrationDraft removes the saved draft.
func (s *Store) ClearRegistrationDraft(ctx context.Context) bool {
	return s.remove(keyDraft, "registration draft")
}

// IncrementFailedAttempts adds one to the failed-attempt counter, stamping
// the lockout timestamp when the threshold is reached. A storage failure is
// returned to the caller so a login attempt is failed outright instead of
// silently under-counted.
func (s *Store) IncrementFailedAttempts(ctx context.Context) (int, error) {
	count := s.FailedAttempts(ctx) + 1
	if err := s.kv.Set(keyFailedAttempts, fmt.Sprintf("%d", count)); err != nil {
		return 0, fmt.Errorf("persist failed-attempt count: %w", err)
	}
	if count >= s.cfg.MaxFailedAttempts {
		if err := s.kv.Set(keyLockedAt, s.now().Format(time.RFC3339Nano)); err != nil {
			return 0, fmt.Errorf("persist lockout timestamp: %w", err)
		}
		s.logger.Warn("account locked out",
			slog.Int("failed_attempts", count),
			slog.Duration("window", s.cfg.LockoutWindow))
	}
	return count, nil
}

// FailedAttempts returns the current counter, 0 if unset or unreadable.
func (s *Store) FailedAttempts(ctx context.Context) int {
	raw, ok := s.kv.Get(keyFailedAttempts)
	if !ok {
		return 0
	}
	var count int
	if _, err := fmt.Sscanf(raw, "%d", &count); err != nil || count < 0 {
		s.logger.Error("failed-attempt counter unreadable", slog.String("value", raw))
		return 0
	}
	return count
}

// ResetFailedAttempts clears the counter and the lockout timestamp.
func (s *Store) ResetFailedAttempts(ctx context.Context) bool {
	ok := s.remove(keyFailedAttempts, "failed-attempt counter")
	return s.remove(keyLockedAt, "lockout timestamp") && ok
}

// LockoutState reads the persisted lockout state.
func (s *Store) LockoutState(ctx context.Context) *models.LockoutState {
	state := &models.LockoutState{FailedAttempts: s.FailedAttempts(ctx)}
	raw, ok := s.kv.Get(keyLockedAt)
	if !ok {
		return state
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Error("lockout timestamp unreadable", slog.String("value", raw))
		return state
	}
	state.LockedAt = &ts
	return state
}

// IsLockedOut reports whether the lockout window is currently in effect.
// Pure read; expired state is cleared by ReconcileLockout.
func (s *Store) IsLockedOut(ctx context.Context) bool {
	return s.LockoutState(ctx).Locked(s.now(), s.cfg.LockoutWindow)
}

// RemainingLockout returns the whole seconds left in the window, 0 when not
// locked out.
func (s *Store) RemainingLockout(ctx context.Context) int64 {
	return s.LockoutState(ctx).Remaining(s.now(), s.cfg.LockoutWindow)
}

// ReconcileLockout resets the lockout state if its window has elapsed.
// Returns true if the state is clean afterwards.
func (s *Store) ReconcileLockout(ctx context.Context) bool {
	state := s.LockoutState(ctx)
	if !state.Expired(s.now(), s.cfg.LockoutWindow) {
		return true
	}
	s.logger.Info("lockout window elapsed, resetting failed attempts")
	return s.ResetFailedAttempts(ctx)
}

// StoreSessionToken persists the session marker.
func (s *Store) StoreSessionToken(ctx context.Context, token string) bool {
	if err := s.kv.Set(keySessionToken, token); err != nil {
		s.logger.Error("failed to store session token", slog.Any("error", err))
		return false
	}
	return true
}

// SessionToken returns the persisted session marker.
func (s *Store) SessionToken(ctx context.Context) (string, bool) {
	return s.kv.Get(keySessionToken)
}

// ClearSessionToken removes the session marker. This is the whole of
// logout: credential and profile stay put.
func (s *Store) ClearSessionToken(ctx context.Context) bool {
	return s.remove(keySessionToken, "session token")
}

// HasActiveSession reports whether a registered account is present on the
// device: both a credential and a profile exist.
func (s *Store) HasActiveSession(ctx context.Context) bool {
	return s.GetCredentials(ctx) != nil && s.GetUserProfile(ctx) != nil
}

// ClearAll wipes every stored entity: credentials, profile, draft, lockout
// state and session. Full device reset only; logout never calls this.
func (s *Store) ClearAll(ctx context.Context) bool {
	ok := s.ClearCredentials(ctx)
	ok = s.ClearUserProfile(ctx) && ok
	ok = s.ClearRegistrationDraft(ctx) && ok
	ok = s.ResetFailedAttempts(ctx) && ok
	ok = s.ClearSessionToken(ctx) && ok
	return ok
}

func (s *Store) setJSON(key string, v any, what string) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode "+what, slog.Any("error", err))
		return false
	}
	if err := s.kv.Set(key, string(raw)); err != nil {
		s.logger.Error("failed to store "+what, slog.Any("error", err))
		return false
	}
	return true
}

func (s *Store) getJSON(key string, v any, what string) bool {
	raw, ok := s.kv.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Error("stored "+what+" unreadable", slog.Any("error", err))
		return false
	}
	return true
}

func (s *Store) remove(key, what string) bool {
	if err := s.kv.Remove(key); err != nil {
		s.logger.Error("failed to clear "+what, slog.Any("error", err))
		return false
	}
	return true
}
