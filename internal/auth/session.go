// Package auth issues and validates the locally signed session token that
// marks an authenticated session across process restarts.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mavelar/gatekeep/internal/models"
)

// SessionManager handles session token generation and validation. Tokens
// are HS256 JWTs signed with the per-installation device secret, so a
// session marker copied from another device does not validate.
type SessionManager struct {
	signingKey []byte
	ttl        time.Duration
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(signingKey []byte, ttl time.Duration) *SessionManager {
	return &SessionManager{
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Issue creates a session token for the given user.
func (sm *SessionManager) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := &models.SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning its claims.
func (sm *SessionManager) Validate(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sm.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}
	return claims, nil
}
