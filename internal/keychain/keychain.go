// Package keychain implements the encrypted single-slot secret backend.
// Each service name owns one sealed file; payloads are AES-256-GCM
// encrypted with a key derived from a per-installation device secret.
package keychain

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	secretFile  = "device.secret"
	keychainDir = "keychain"
)

// entry is the sealed payload layout for one slot.
type entry struct {
	Account string `json:"account"`
	Secret  string `json:"secret"`
}

// Keychain is an encrypted file-backed secret store keyed by service name.
type Keychain struct {
	dir    string
	secret []byte
	aead   cipher.AEAD
	logger *slog.Logger
}

// Open prepares the keychain directory under dataDir, creating the device
// secret on first use.
func Open(dataDir string, logger *slog.Logger) (*Keychain, error) {
	dir := filepath.Join(dataDir, keychainDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keychain directory: %w", err)
	}

	secret, salt, err := loadOrCreateSecret(filepath.Join(dataDir, secretFile))
	if err != nil {
		return nil, err
	}

	aead, err := deriveAEAD(secret, salt)
	if err != nil {
		return nil, err
	}

	return &Keychain{
		dir:    dir,
		secret: secret,
		aead:   aead,
		logger: logger,
	}, nil
}

// DeviceSecret returns the per-installation secret, used as the session
// token signing key.
func (k *Keychain) DeviceSecret() []byte {
	return k.secret
}

// Set writes the slot for service, replacing any prior value.
func (k *Keychain) Set(service, account, secret string) error {
	plain, err := json.Marshal(entry{Account: account, Secret: secret})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	sealed, err := seal(k.aead, plain)
	if err != nil {
		return err
	}

	path := k.slotPath(service)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0600); err != nil {
		return fmt.Errorf("write slot %s: %w", service, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit slot %s: %w", service, err)
	}
	return nil
}

// Get reads the slot for service. ok is false if the slot was never set or
// the payload cannot be read or decrypted.
func (k *Keychain) Get(service string) (account, secret string, ok bool) {
	sealed, err := os.ReadFile(k.slotPath(service))
	if err != nil {
		if !os.IsNotExist(err) {
			k.logger.Error("keychain read failed", slog.String("service", service), slog.Any("error", err))
		}
		return "", "", false
	}

	plain, err := open(k.aead, sealed)
	if err != nil {
		k.logger.Error("keychain decrypt failed", slog.String("service", service), slog.Any("error", err))
		return "", "", false
	}

	var e entry
	if err := json.Unmarshal(plain, &e); err != nil {
		k.logger.Error("keychain payload corrupt", slog.String("service", service), slog.Any("error", err))
		return "", "", false
	}
	return e.Account, e.Secret, true
}

// Reset removes the slot for service. Missing slots are not an error.
func (k *Keychain) Reset(service string) error {
	if err := os.Remove(k.slotPath(service)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset slot %s: %w", service, err)
	}
	return nil
}

func (k *Keychain) slotPath(service string) string {
	return filepath.Join(k.dir, service+".bin")
}

// loadOrCreateSecret reads the device secret file, generating secret and
// salt material on first run. The file holds secret||salt.
func loadOrCreateSecret(path string) (secret, salt []byte, err error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != secretLen+saltLen {
			return nil, nil, fmt.Errorf("device secret file has unexpected size %d", len(raw))
		}
		return raw[:secretLen], raw[secretLen:], nil
	}
	if !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("read device secret: %w", err)
	}

	raw = make([]byte, secretLen+saltLen)
	if _, err := rand.Read(raw); err != nil {
		return nil, nil, fmt.Errorf("generate device secret: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return nil, nil, fmt.Errorf("write device secret: %w", err)
	}
	return raw[:secretLen], raw[secretLen:], nil
}
