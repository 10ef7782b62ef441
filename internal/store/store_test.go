package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavelar/gatekeep/internal/keychain"
	"github.com/mavelar/gatekeep/internal/kvstore"
	"github.com/mavelar/gatekeep/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	dir := t.TempDir()

	kc, err := keychain.Open(dir, slog.Default())
	require.NoError(t, err)

	kv, err := kvstore.Open(dir)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := Config{MaxFailedAttempts: 5, LockoutWindow: 15 * time.Minute}
	return NewWithClock(kc, kv, cfg, slog.Default(), clock.Now), clock
}

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:          "user123",
		Email:       "a@b.com",
		FirstName:   "John",
		LastName:    "Doe",
		PhoneNumber: "1234567890",
		CreatedAt:   time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

// ============================================================================
// Credential slot
// ============================================================================

func TestStore_CredentialSlotRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.Nil(t, s.GetCredentials(ctx))

	assert.True(t, s.StoreCredentials(ctx, "a@b.com", "hash1"))
	cred := s.GetCredentials(ctx)
	require.NotNil(t, cred)
	assert.Equal(t, "a@b.com", cred.Email)
	assert.Equal(t, "hash1", cred.PasswordHash)

	// Single slot: a second write replaces the first.
	assert.True(t, s.StoreCredentials(ctx, "c@d.com", "hash2"))
	cred = s.GetCredentials(ctx)
	require.NotNil(t, cred)
	assert.Equal(t, "c@d.com", cred.Email)

	assert.True(t, s.ClearCredentials(ctx))
	assert.Nil(t, s.GetCredentials(ctx))
}

// ============================================================================
// Profile and draft
// ============================================================================

func TestStore_UserProfileRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.Nil(t, s.GetUserProfile(ctx))

	profile := testProfile()
	assert.True(t, s.StoreUserProfile(ctx, profile))
	assert.Equal(t, profile, s.GetUserProfile(ctx))

	assert.True(t, s.ClearUserProfile(ctx))
	assert.Nil(t, s.GetUserProfile(ctx))
}

func TestStore_RegistrationDraftRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	draft := &models.RegistrationDraft{
		Email:       "a@b.com",
		FirstName:   "John",
		LastName:    "Doe",
		PhoneNumber: "1234567890",
	}
	assert.True(t, s.StoreRegistrationDraft(ctx, draft))
	assert.Equal(t, draft, s.GetRegistrationDraft(ctx))

	assert.True(t, s.ClearRegistrationDraft(ctx))
	assert.Nil(t, s.GetRegistrationDraft(ctx))
}

func TestStore_DraftNeverContainsPassword(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.StoreRegistrationDraft(ctx, &models.RegistrationDraft{Email: "a@b.com"}))

	raw, ok := s.kv.Get(keyDraft)
	require.True(t, ok)
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "Password")
}

// ============================================================================
// Failed attempts and lockout
// ============================================================================

func TestStore_IncrementStampsLockoutAtThreshold(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		count, err := s.IncrementFailedAttempts(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.False(t, s.IsLockedOut(ctx))
		assert.Nil(t, s.LockoutState(ctx).LockedAt)
	}

	count, err := s.IncrementFailedAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.True(t, s.IsLockedOut(ctx))
	assert.NotNil(t, s.LockoutState(ctx).LockedAt)
	assert.Equal(t, int64(900), s.RemainingLockout(ctx))
}

func TestStore_LockoutExpiresAfterWindow(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IncrementFailedAttempts(ctx)
		require.NoError(t, err)
	}
	require.True(t, s.IsLockedOut(ctx))

	clock.Advance(14 * time.Minute)
	assert.True(t, s.IsLockedOut(ctx))
	assert.Equal(t, int64(60), s.RemainingLockout(ctx))

	clock.Advance(1 * time.Minute)
	assert.False(t, s.IsLockedOut(ctx))
	assert.Equal(t, int64(0), s.RemainingLockout(ctx))
}

func TestStore_RemainingNonIncreasingWhileLocked(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IncrementFailedAttempts(ctx)
		require.NoError(t, err)
	}

	prev := s.RemainingLockout(ctx)
	for i := 0; i < 20; i++ {
		clock.Advance(73 * time.Second)
		remaining := s.RemainingLockout(ctx)
		assert.LessOrEqual(t, remaining, prev)
		assert.Equal(t, remaining > 0, s.IsLockedOut(ctx))
		prev = remaining
	}
}

func TestStore_ReconcileClearsExpiredLockout(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IncrementFailedAttempts(ctx)
		require.NoError(t, err)
	}

	// Inside the window reconcile must not touch the state.
	assert.True(t, s.ReconcileLockout(ctx))
	assert.Equal(t, 5, s.FailedAttempts(ctx))
	assert.NotNil(t, s.LockoutState(ctx).LockedAt)

	clock.Advance(15 * time.Minute)
	assert.True(t, s.ReconcileLockout(ctx))
	assert.Equal(t, 0, s.FailedAttempts(ctx))
	assert.Nil(t, s.LockoutState(ctx).LockedAt)
}

func TestStore_ResetFailedAttempts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IncrementFailedAttempts(ctx)
		require.NoError(t, err)
	}

	assert.True(t, s.ResetFailedAttempts(ctx))
	assert.Equal(t, 0, s.FailedAttempts(ctx))
	assert.False(t, s.IsLockedOut(ctx))
	assert.Nil(t, s.LockoutState(ctx).LockedAt)
}

func TestStore_FailedAttemptsZeroWhenUnset(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, 0, s.FailedAttempts(context.Background()))
}

// ============================================================================
// Session and wipe
// ============================================================================

func TestStore_SessionTokenLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, ok := s.SessionToken(ctx)
	assert.False(t, ok)

	assert.True(t, s.StoreSessionToken(ctx, "token-abc"))
	token, ok := s.SessionToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "token-abc", token)

	assert.True(t, s.ClearSessionToken(ctx))
	_, ok = s.SessionToken(ctx)
	assert.False(t, ok)
}

func TestStore_HasActiveSessionRequiresCredentialAndProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.False(t, s.HasActiveSession(ctx))

	require.True(t, s.StoreCredentials(ctx, "a@b.com", "hash"))
	assert.False(t, s.HasActiveSession(ctx))

	require.True(t, s.StoreUserProfile(ctx, testProfile()))
	assert.True(t, s.HasActiveSession(ctx))
}

func TestStore_ClearSessionPreservesCredentialAndProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.StoreCredentials(ctx, "a@b.com", "hash"))
	require.True(t, s.StoreUserProfile(ctx, testProfile()))
	require.True(t, s.StoreSessionToken(ctx, "token"))

	require.True(t, s.ClearSessionToken(ctx))

	assert.NotNil(t, s.GetCredentials(ctx))
	assert.NotNil(t, s.GetUserProfile(ctx))
}

func TestStore_ClearAllWipesEverything(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.StoreCredentials(ctx, "a@b.com", "hash"))
	require.True(t, s.StoreUserProfile(ctx, testProfile()))
	require.True(t, s.StoreRegistrationDraft(ctx, &models.RegistrationDraft{Email: "a@b.com"}))
	require.True(t, s.StoreSessionToken(ctx, "token"))
	_, err := s.IncrementFailedAttempts(ctx)
	require.NoError(t, err)

	assert.True(t, s.ClearAll(ctx))

	assert.Nil(t, s.GetCredentials(ctx))
	assert.Nil(t, s.GetUserProfile(ctx))
	assert.Nil(t, s.GetRegistrationDraft(ctx))
	assert.Equal(t, 0, s.FailedAttempts(ctx))
	_, ok := s.SessionToken(ctx)
	assert.False(t, ok)
	assert.False(t, s.HasActiveSession(ctx))
}
