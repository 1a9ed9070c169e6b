// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keySize    = 32
	keyHexSize = keySize * 2
	keyFile    = "auth.key"
)

// LoadOrGenerateKey returns the hex-encoded token key stored in
// dir/auth.key, writing a fresh random key there on first start.
func LoadOrGenerateKey(dir string) (string, error) {
	path := filepath.Join(dir, keyFile)

	//#nosec G304 -- path is built from the configured data directory
	raw, err := os.ReadFile(path)
	if err == nil {
		keyHex := strings.TrimSpace(string(raw))
		if err := checkKeyHex(keyHex); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return keyHex, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate auth key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("write auth key: %w", err)
	}
	return keyHex, nil
}

func checkKeyHex(keyHex string) error {
	if len(keyHex) != keyHexSize {
		return fmt.Errorf("auth key must be %d hex characters, got %d", keyHexSize, len(keyHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		return fmt.Errorf("auth key is not valid hex: %w", err)
	}
	return nil
}
