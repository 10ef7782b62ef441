package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrAlreadyExists         = errors.New("an account with this email already exists")
	ErrCredentialStoreFailed = errors.New("failed to store credentials")
	ErrProfileStoreFailed    = errors.New("failed to store user profile")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrLockedOut             = errors.New("account is temporarily locked")
	ErrProfileMissing        = errors.New("user profile missing for stored credential")
	ErrNotAuthenticated      = errors.New("no active session")
	ErrValidation            = errors.New("validation failed")
	ErrUnexpected            = errors.New("unexpected error")
)
