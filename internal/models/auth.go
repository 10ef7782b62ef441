package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by the locally issued session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthResult is the value every authentication operation returns. Failures
// are folded into the result rather than raised, so the caller can render
// screen state directly.
type AuthResult struct {
	Success          bool
	User             *UserProfile
	Err              error
	Message          string
	LockedOut        bool
	RemainingSeconds int64
}

// Ok builds a successful result carrying the profile.
func Ok(user *UserProfile, message string) *AuthResult {
	return &AuthResult{Success: true, User: user, Message: message}
}

// Fail builds a failed result from a sentinel error and a user-facing message.
func Fail(err error, message string) *AuthResult {
	return &AuthResult{Err: err, Message: message}
}

// FailLocked builds a lockout result with the remaining wait time.
func FailLocked(remainingSeconds int64, message string) *AuthResult {
	return &AuthResult{
		Err:              ErrLockedOut,
		Message:          message,
		LockedOut:        true,
		RemainingSeconds: remainingSeconds,
	}
}
