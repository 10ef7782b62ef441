package models

import (
	"time"
)

// Credential is the single stored credential slot. At most one credential
// exists per device installation; the password is kept as a bcrypt hash,
// never plaintext.
type Credential struct {
	Email        string
	PasswordHash string
}

// UserProfile holds the non-secret account fields stored alongside the
// credential. Email mirrors Credential.Email.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// FullName returns the display name for the profile.
func (p *UserProfile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// RegistrationDraft is the partial registration form persisted so an
// interrupted signup can resume. Password fields are structurally absent so
// they can never reach the key-value store.
type RegistrationDraft struct {
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Empty returns true if no draft field has been filled in.
func (d *RegistrationDraft) Empty() bool {
	return d.Email == "" && d.FirstName == "" && d.LastName == "" && d.PhoneNumber == ""
}
