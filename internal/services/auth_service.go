package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mavelar/gatekeep/internal/models"
	pkgauth "github.com/mavelar/gatekeep/pkg/auth"
	pkglogger "github.com/mavelar/gatekeep/pkg/logger"
)

// CredentialStore defines the interface for durable auth state. Implemented
// by internal/store on top of the keychain and key-value backends.
type CredentialStore interface {
	StoreCredentials(ctx context.Context, email, passwordHash string) bool
	GetCredentials(ctx context.Context) *models.Credential
	ClearCredentials(ctx context.Context) bool

	StoreUserProfile(ctx context.Context, profile *models.UserProfile) bool
	GetUserProfile(ctx context.Context) *models.UserProfile

	StoreRegistrationDraft(ctx context.Context, draft *models.RegistrationDraft) bool
	GetRegistrationDraft(ctx context.Context) *models.RegistrationDraft
	ClearRegistrationDraft(ctx context.Context) bool

	StoreSessionToken(ctx context.Context, token string) bool
	SessionToken(ctx context.Context) (string, bool)
	ClearSessionToken(ctx context.Context) bool

	ClearAll(ctx context.Context) bool
}

// SessionTokens issues and validates the persisted session marker.
type SessionTokens interface {
	Issue(userID, email string) (string, error)
	Validate(tokenString string) (*models.SessionClaims, error)
}

// AuthService orchestrates registration, login, logout and the session
// check. All outcomes are returned as AuthResult values; nothing panics or
// escapes as an unhandled fault.
type AuthService struct {
	store       CredentialStore
	lockout     *LockoutService
	sessions    SessionTokens
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store CredentialStore, lockout *LockoutService, sessions SessionTokens, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		store:       store,
		lockout:     lockout,
		sessions:    sessions,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Register creates the on-device account: credential slot plus profile.
// Fails with AlreadyExists when the stored credential carries the submitted
// email; a partial write is rolled back so credential and profile never
// diverge.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) *models.AuthResult {
	if err := ValidateRequest(req); err != nil {
		return models.Fail(models.ErrValidation, err.Error())
	}
	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		return models.Fail(models.ErrValidation, err.Error())
	}

	email := normalizeEmail(req.Email)

	if existing := s.store.GetCredentials(ctx); existing != nil && existing.Email == email {
		s.logger.Info("registration rejected: email already registered")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     pkglogger.EventRegister,
			Email:         email,
			FailureReason: "already_exists",
			Success:       false,
		})
		return models.Fail(models.ErrAlreadyExists, models.ErrAlreadyExists.Error())
	}

	passwordHash, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.Fail(models.ErrUnexpected, "registration failed, please try again")
	}

	profile := &models.UserProfile{
		ID:          uuid.New().String(),
		Email:       email,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		CreatedAt:   time.Now().UTC(),
	}

	if !s.store.StoreCredentials(ctx, email, passwordHash) {
		return models.Fail(models.ErrCredentialStoreFailed, "could not save your account, please try again")
	}

	if !s.store.StoreUserProfile(ctx, profile) {
		// Roll back so a credential never exists without its profile.
		if !s.store.ClearCredentials(ctx) {
			s.logger.Error("rollback failed: orphaned credential slot")
		}
		return models.Fail(models.ErrProfileStoreFailed, "could not save your account, please try again")
	}

	s.startSession(ctx, profile)

	if !s.store.ClearRegistrationDraft(ctx) {
		s.logger.Warn("failed to clear registration draft after signup")
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: pkglogger.EventRegister,
		UserID:    profile.ID,
		Email:     email,
		Success:   true,
	})
	return models.Ok(profile, "registration successful")
}

// Login verifies the submitted credentials against the stored slot,
// enforcing the failed-attempt lockout. A missing credential is treated
// identically to a wrong password so the result never reveals whether an
// account exists.
func (s *AuthService) Login(ctx context.Context, email, password string) *models.AuthResult {
	if !s.lockout.Reconcile(ctx) {
		s.logger.Warn("lockout reconcile failed, proceeding with stored state")
	}

	if locked, remaining := s.lockout.Status(ctx); locked {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			Email:         email,
			FailureReason: "locked_out",
			Success:       false,
		})
		return models.FailLocked(remaining, lockedOutMessage(remaining))
	}

	email = normalizeEmail(email)
	cred := s.store.GetCredentials(ctx)

	match := cred != nil &&
		cred.Email == email &&
		pkgauth.ComparePassword(cred.PasswordHash, password) == nil

	if !match {
		return s.failLogin(ctx, email)
	}

	if !s.lockout.RecordSuccess(ctx) {
		s.logger.Warn("failed to reset failed-attempt counter after login")
	}

	profile := s.store.GetUserProfile(ctx)

	s.startSession(ctx, profile)

	if profile == nil {
		// Credential present but profile missing: inconsistent state, most
		// likely a partially completed wipe.
		s.logger.Error("stored credential has no matching profile")
		return models.Fail(models.ErrProfileMissing, "account data is incomplete, please re-register")
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: pkglogger.EventLoginSuccess,
		UserID:    profile.ID,
		Email:     email,
		Success:   true,
	})
	return models.Ok(profile, "login successful")
}

// failLogin counts the failed attempt and converts the outcome into either
// an invalid-credentials or a lockout result.
func (s *AuthService) failLogin(ctx context.Context, email string) *models.AuthResult {
	count, locked, remaining, err := s.lockout.RecordFailure(ctx)
	if err != nil {
		// Failing the attempt outright beats silently under-counting.
		return models.Fail(models.ErrUnexpected, "login is unavailable right now, please try again")
	}

	event := pkglogger.AuditEvent{
		EventType:     pkglogger.EventLoginFailed,
		Email:         email,
		FailureReason: "invalid_credentials",
		Success:       false,
		Metadata:      map[string]string{"failed_attempts": strconv.Itoa(count)},
	}

	if locked {
		event.EventType = pkglogger.EventLockout
		s.auditLogger.LogAuthAttempt(event)
		return models.FailLocked(remaining, lockedOutMessage(remaining))
	}

	s.auditLogger.LogAuthAttempt(event)
	return models.Fail(models.ErrInvalidCredentials, models.ErrInvalidCredentials.Error())
}

// Logout clears the session marker only. Credential and profile stay on the
// device so the user can log back in without re-registering.
func (s *AuthService) Logout(ctx context.Context) *models.AuthResult {
	var userID string
	if token, ok := s.store.SessionToken(ctx); ok {
		if claims, err := s.sessions.Validate(token); err == nil {
			userID = claims.UserID
		}
	}

	if !s.store.ClearSessionToken(ctx) {
		return models.Fail(models.ErrUnexpected, "could not end the session, please try again")
	}

	s.auditLogger.LogAccountAction(pkglogger.EventLogout, userID, nil)
	return models.Ok(nil, "logged out")
}

// CheckAuth reports whether an authenticated session is active, loading the
// profile when present. A valid session with a missing profile is tolerated
// and returns an authenticated result without a payload.
func (s *AuthService) CheckAuth(ctx context.Context) *models.AuthResult {
	token, ok := s.store.SessionToken(ctx)
	if !ok {
		return models.Fail(models.ErrNotAuthenticated, "not signed in")
	}

	if _, err := s.sessions.Validate(token); err != nil {
		s.logger.Info("stored session token invalid", slog.Any("error", err))
		if !s.store.ClearSessionToken(ctx) {
			s.logger.Warn("failed to clear stale session token")
		}
		return models.Fail(models.ErrNotAuthenticated, "session expired, please log in again")
	}

	return models.Ok(s.store.GetUserProfile(ctx), "authenticated")
}

// Wipe is the administrative full reset: credentials, profile, draft,
// lockout state and session all go.
func (s *AuthService) Wipe(ctx context.Context) *models.AuthResult {
	if !s.store.ClearAll(ctx) {
		return models.Fail(models.ErrUnexpected, "could not wipe all stored data")
	}
	s.auditLogger.LogAccountAction(pkglogger.EventWipe, "", nil)
	return models.Ok(nil, "all account data removed")
}

// SaveRegistrationDraft persists the non-secret registration fields so an
// interrupted signup can resume.
func (s *AuthService) SaveRegistrationDraft(ctx context.Context, draft *models.RegistrationDraft) bool {
	return s.store.StoreRegistrationDraft(ctx, draft)
}

// RegistrationDraft returns the saved draft, or nil.
func (s *AuthService) RegistrationDraft(ctx context.Context) *models.RegistrationDraft {
	return s.store.GetRegistrationDraft(ctx)
}

// startSession issues and persists the session token. Session marking is
// best-effort: a failure is logged but does not fail the surrounding
// register/login, which already succeeded against durable state.
func (s *AuthService) startSession(ctx context.Context, profile *models.UserProfile) {
	userID, email := "", ""
	if profile != nil {
		userID, email = profile.ID, profile.Email
	}

	token, err := s.sessions.Issue(userID, email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return
	}
	if !s.store.StoreSessionToken(ctx, token) {
		s.logger.Error("failed to persist session token")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func lockedOutMessage(remainingSeconds int64) string {
	minutes := (remainingSeconds + 59) / 60
	if minutes <= 1 {
		return "too many failed attempts, please wait 1 minute and try again"
	}
	return fmt.Sprintf("too many failed attempts, please wait %d minutes and try again", minutes)
}
