package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mavelar/gatekeep/internal/models"
	pkglogger "github.com/mavelar/gatekeep/pkg/logger"
)

// MemStore is an in-memory CredentialStore/LockoutStore for service tests,
// with switches to simulate backend write failures.
type MemStore struct {
	Cred    *models.Credential
	Profile *models.UserProfile
	Draft   *models.RegistrationDraft

	Session    string
	HasSession bool

	Failed   int
	LockedAt *time.Time

	MaxAttempts int
	Window      time.Duration
	Clock       time.Time

	FailCredentialWrite bool
	FailProfileWrite    bool
	FailIncrement       bool
	FailSessionWrite    bool
}

// NewMemStore creates a MemStore with the default 5/15m policy.
func NewMemStore() *MemStore {
	return &MemStore{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Clock:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *MemStore) StoreCredentials(ctx context.Context, email, passwordHash string) bool {
	if m.FailCredentialWrite {
		return false
	}
	m.Cred = &models.Credential{Email: email, PasswordHash: passwordHash}
	return true
}

func (m *MemStore) GetCredentials(ctx context.Context) *models.Credential {
	return m.Cred
}

func (m *MemStore) ClearCredentials(ctx context.Context) bool {
	m.Cred = nil
	return true
}

func (m *MemStore) StoreUserProfile(ctx context.Context, profile *models.UserProfile) bool {
	if m.FailProfileWrite {
		return false
	}
	m.Profile = profile
	return true
}

func (m *MemStore) GetUserProfile(ctx context.Context) *models.UserProfile {
	return m.Profile
}

func (m *MemStore) StoreRegistrationDraft(ctx context.Context, draft *models.RegistrationDraft) bool {
	m.Draft = draft
	return true
}

func (m *MemStore) GetRegistrationDraft(ctx context.Context) *models.RegistrationDraft {
	return m.Draft
}

func (m *MemStore) ClearRegistrationDraft(ctx context.Context) bool {
	m.Draft = nil
	return true
}

func (m *MemStore) StoreSessionToken(ctx context.Context, token string) bool {
	if m.FailSessionWrite {
		return false
	}
	m.Session = token
	m.HasSession = true
	return true
}

func (m *MemStore) SessionToken(ctx context.Context) (string, bool) {
	return m.Session, m.HasSession
}

func (m *MemStore) ClearSessionToken(ctx context.Context) bool {
	m.Session = ""
	m.HasSession = false
	return true
}

func (m *MemStore) ClearAll(ctx context.Context) bool {
	m.Cred = nil
	m.Profile = nil
	m.Draft = nil
	m.Session = ""
	m.HasSession = false
	m.Failed = 0
	m.LockedAt = nil
	return true
}

func (m *MemStore) IncrementFailedAttempts(ctx context.Context) (int, error) {
	if m.FailIncrement {
		return 0, fmt.Errorf("simulated storage failure")
	}
	m.Failed++
	if m.Failed >= m.MaxAttempts {
		stamped := m.Clock
		m.LockedAt = &stamped
	}
	return m.Failed, nil
}

func (m *MemStore) FailedAttempts(ctx context.Context) int {
	return m.Failed
}

func (m *MemStore) ResetFailedAttempts(ctx context.Context) bool {
	m.Failed = 0
	m.LockedAt = nil
	return true
}

func (m *MemStore) lockoutState() *models.LockoutState {
	return &models.LockoutState{FailedAttempts: m.Failed, LockedAt: m.LockedAt}
}

func (m *MemStore) IsLockedOut(ctx context.Context) bool {
	return m.lockoutState().Locked(m.Clock, m.Window)
}

func (m *MemStore) RemainingLockout(ctx context.Context) int64 {
	return m.lockoutState().Remaining(m.Clock, m.Window)
}

func (m *MemStore) ReconcileLockout(ctx context.Context) bool {
	if m.lockoutState().Expired(m.Clock, m.Window) {
		m.Failed = 0
		m.LockedAt = nil
	}
	return true
}

// fakeSessions implements SessionTokens without real signing.
type fakeSessions struct {
	FailIssue bool
	valid     map[string]*models.SessionClaims
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{valid: make(map[string]*models.SessionClaims)}
}

func (f *fakeSessions) Issue(userID, email string) (string, error) {
	if f.FailIssue {
		return "", fmt.Errorf("simulated signing failure")
	}
	token := fmt.Sprintf("token-%d", len(f.valid)+1)
	f.valid[token] = &models.SessionClaims{UserID: userID, Email: email}
	return token, nil
}

func (f *fakeSessions) Validate(tokenString string) (*models.SessionClaims, error) {
	claims, ok := f.valid[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// newTestAuthService wires an AuthService over a MemStore.
func newTestAuthService(ms *MemStore) (*AuthService, *fakeSessions) {
	logger := slog.Default()
	sessions := newFakeSessions()
	lockout := NewLockoutService(ms, LockoutPolicy{MaxFailedAttempts: ms.MaxAttempts, Window: ms.Window}, logger)
	return NewAuthService(ms, lockout, sessions, logger, pkglogger.NewAuditLogger(logger)), sessions
}

// validRegisterRequest returns the canonical registration fixture.
func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:           "a@b.com",
		Password:        "Passw0rd",
		ConfirmPassword: "Passw0rd",
		FirstName:       "John",
		LastName:        "Doe",
		PhoneNumber:     "1234567890",
	}
}
