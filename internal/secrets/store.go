package secrets

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

// Store resolves named bundled secrets. Plaintext results are cached per name
// for the process lifetime; decryption failures are cached too, so a doomed
// ciphertext never pays the KDF cost twice.
type Store struct {
	mu          sync.Mutex
	key         []byte
	ciphertexts map[string]string
	cache       map[string]string
	failed      map[string]struct{}
}

// NewStore creates a Store over the embedded ciphertext map, deriving the
// symmetric key from the application identifier.
func NewStore() *Store {
	return NewStoreWithKey(DeriveKey(branding.AppIdentifier()), bundled())
}

// NewStoreWithKey creates a Store with an explicit key and ciphertext map.
// Exposed for tests and for the encrypt utility.
func NewStoreWithKey(key []byte, ciphertexts map[string]string) *Store {
	return &Store{
		key:         key,
		ciphertexts: ciphertexts,
		cache:       make(map[string]string),
		failed:      make(map[string]struct{}),
	}
}

// Get returns the plaintext for a named secret or ErrSecretUnavailable.
func (s *Store) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plaintext, ok := s.cache[name]; ok {
		return plaintext, nil
	}
	if _, ok := s.failed[name]; ok {
		return "", fmt.Errorf("%w: %s (previous decryption failed)", ErrSecretUnavailable, name)
	}

	ciphertext, ok := s.ciphertexts[name]
	if !ok || ciphertext == "" {
		s.failed[name] = struct{}{}
		return "", fmt.Errorf("%w: no bundled secret named %q", ErrSecretUnavailable, name)
	}

	plaintext, err := Open(s.key, ciphertext)
	if err != nil {
		log.Warnf("decrypting bundled secret %q failed: %v", name, err)
		s.failed[name] = struct{}{}
		return "", err
	}

	s.cache[name] = plaintext
	return plaintext, nil
}

// Invalidate clears both the success and failure cache entries for a name,
// e.g. after the ciphertext map was rotated.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, name)
	delete(s.failed, name)
}
