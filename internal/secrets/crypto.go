package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// ErrSecretUnavailable is returned whenever a secret cannot be produced:
// unknown name, malformed ciphertext, or an authentication failure during
// decryption. Callers never see partial plaintext.
var ErrSecretUnavailable = errors.New("secret unavailable")

const (
	// kdfIterations is fixed per build. Changing it invalidates every
	// bundled ciphertext.
	kdfIterations = 100_000
	keyLen        = 32
)

// kdfSalt is fixed and non-secret: determinism is the point. The ciphertexts
// shipped in the binary are bound to this salt plus the application identifier.
var kdfSalt = []byte("DevManager-Salt-2024")

// DeriveKey derives the 32-byte symmetric key from the application-identifying
// passphrase. The same passphrase always yields the same key.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), kdfSalt, kdfIterations, keyLen, sha256.New)
}

// DeriveSubKey derives an independent key for a named purpose (e.g. the
// launch-token MAC key) from the same passphrase. Different purposes never
// share key material.
func DeriveSubKey(passphrase, purpose string) []byte {
	return pbkdf2.Key([]byte(passphrase), append(kdfSalt, []byte("/"+purpose)...), kdfIterations, keyLen, sha256.New)
}

// Seal encrypts plaintext with AES-256-GCM under key and returns a
// base64url-encoded ciphertext. The GCM nonce is derived from the plaintext
// via HMAC, so identical (key, plaintext) pairs produce identical output —
// the property that lets ciphertexts be checked into source.
func Seal(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(plaintext))
	nonce := mac.Sum(nil)[:gcm.NonceSize()]

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a base64url-encoded ciphertext produced by Seal. Any decoding
// or authentication failure yields ErrSecretUnavailable.
func Open(key []byte, encoded string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrSecretUnavailable)
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Authentication failure. Never return partial data.
		return "", fmt.Errorf("%w: authentication failed", ErrSecretUnavailable)
	}
	return string(plaintext), nil
}
