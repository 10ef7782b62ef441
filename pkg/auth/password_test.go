package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Passw0rd", hash)

	// Hashing is salted; two hashes of the same input differ.
	second, err := HashPassword("Passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, hash, second)
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd")
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "Passw0rd"))
	assert.Error(t, ComparePassword(hash, "passw0rd"))
	assert.Error(t, ComparePassword(hash, "Passw0rd "))
	assert.Error(t, ComparePassword(hash, ""))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Passw0rd", false},
		{"valid long", "Correct-Horse-Battery-1", false},
		{"too short", "Pw1", true},
		{"no uppercase", "passw0rd1", true},
		{"no lowercase", "PASSW0RD1", true},
		{"no digit", "Password", true},
		{"common", "Password123", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidationError_Message(t *testing.T) {
	err := ValidatePassword("short")
	require.Error(t, err)

	var ve *PasswordValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "password")
}
