package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavelar/gatekeep/internal/auth"
	"github.com/mavelar/gatekeep/internal/keychain"
	"github.com/mavelar/gatekeep/internal/kvstore"
	"github.com/mavelar/gatekeep/internal/models"
	"github.com/mavelar/gatekeep/internal/store"
	pkglogger "github.com/mavelar/gatekeep/pkg/logger"
)

// Full-stack scenario over the real backends: register, lock the account
// with five bad passwords, verify the correct password stays locked, then
// recover after the window.
func TestAuthFlow_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	logger := slog.Default()
	ctx := context.Background()

	kc, err := keychain.Open(dir, logger)
	require.NoError(t, err)
	kv, err := kvstore.Open(dir)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	credStore := store.NewWithClock(kc, kv, store.Config{
		MaxFailedAttempts: 5,
		LockoutWindow:     15 * time.Minute,
	}, logger, clock)

	sessions := auth.NewSessionManager(kc.DeviceSecret(), time.Hour)
	lockout := NewLockoutService(credStore, DefaultLockoutPolicy(), logger)
	svc := NewAuthService(credStore, lockout, sessions, logger, pkglogger.NewAuditLogger(logger))

	// Register
	reg := svc.Register(ctx, RegisterRequest{
		Email:           "a@b.com",
		Password:        "Passw0rd",
		ConfirmPassword: "Passw0rd",
		FirstName:       "John",
		LastName:        "Doe",
		PhoneNumber:     "1234567890",
	})
	require.True(t, reg.Success, reg.Message)
	assert.Equal(t, "a@b.com", reg.User.Email)
	require.True(t, svc.CheckAuth(ctx).Success)

	require.True(t, svc.Logout(ctx).Success)
	assert.False(t, svc.CheckAuth(ctx).Success)
	assert.True(t, credStore.HasActiveSession(ctx), "account data survives logout")

	// Five wrong passwords: the fifth locks the account.
	for i := 0; i < 4; i++ {
		result := svc.Login(ctx, "a@b.com", "wrong")
		require.ErrorIs(t, result.Err, models.ErrInvalidCredentials)
	}
	fifth := svc.Login(ctx, "a@b.com", "wrong")
	require.True(t, fifth.LockedOut)
	assert.InDelta(t, 900, fifth.RemainingSeconds, 1)

	// Correct password while locked: still locked, counter untouched.
	locked := svc.Login(ctx, "a@b.com", "Passw0rd")
	assert.True(t, locked.LockedOut)
	assert.Equal(t, 5, credStore.FailedAttempts(ctx))

	// Countdown shrinks with the clock and the account unlocks on time.
	now = now.Add(10 * time.Minute)
	stillLocked := svc.Login(ctx, "a@b.com", "Passw0rd")
	require.True(t, stillLocked.LockedOut)
	assert.InDelta(t, 300, stillLocked.RemainingSeconds, 1)

	now = now.Add(5 * time.Minute)
	unlocked := svc.Login(ctx, "a@b.com", "Passw0rd")
	require.True(t, unlocked.Success, unlocked.Message)
	assert.Equal(t, 0, credStore.FailedAttempts(ctx))
	assert.True(t, svc.CheckAuth(ctx).Success)
}

// The persisted draft round-trips across a simulated restart and never
// carries secret fields.
func TestRegistrationDraft_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	logger := slog.Default()
	ctx := context.Background()

	openService := func() *AuthService {
		kc, err := keychain.Open(dir, logger)
		require.NoError(t, err)
		kv, err := kvstore.Open(dir)
		require.NoError(t, err)
		credStore := store.New(kc, kv, store.Config{MaxFailedAttempts: 5, LockoutWindow: 15 * time.Minute}, logger)
		sessions := auth.NewSessionManager(kc.DeviceSecret(), time.Hour)
		lockout := NewLockoutService(credStore, DefaultLockoutPolicy(), logger)
		return NewAuthService(credStore, lockout, sessions, logger, pkglogger.NewAuditLogger(logger))
	}

	draft := &models.RegistrationDraft{Email: "a@b.com", FirstName: "John"}
	require.True(t, openService().SaveRegistrationDraft(ctx, draft))

	restarted := openService()
	assert.Equal(t, draft, restarted.RegistrationDraft(ctx))
}

// A session token issued before a restart still authenticates afterwards.
func TestSession_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	logger := slog.Default()
	ctx := context.Background()

	openService := func() *AuthService {
		kc, err := keychain.Open(dir, logger)
		require.NoError(t, err)
		kv, err := kvstore.Open(dir)
		require.NoError(t, err)
		credStore := store.New(kc, kv, store.Config{MaxFailedAttempts: 5, LockoutWindow: 15 * time.Minute}, logger)
		sessions := auth.NewSessionManager(kc.DeviceSecret(), time.Hour)
		lockout := NewLockoutService(credStore, DefaultLockoutPolicy(), logger)
		return NewAuthService(credStore, lockout, sessions, logger, pkglogger.NewAuditLogger(logger))
	}

	first := openService()
	require.True(t, first.Register(ctx, RegisterRequest{
		Email:           "a@b.com",
		Password:        "Passw0rd",
		ConfirmPassword: "Passw0rd",
		FirstName:       "John",
		LastName:        "Doe",
		PhoneNumber:     "1234567890",
	}).Success)

	restarted := openService()
	result := restarted.CheckAuth(ctx)
	require.True(t, result.Success)
	require.NotNil(t, result.User)
	assert.Equal(t, "a@b.com", result.User.Email)
}
