package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/secrets"
)

// LaunchTokenTTL is the validity window of a launch token. It travels on a
// command line that other local processes can observe, hence the short window
// and one-shot consumption.
const LaunchTokenTTL = 5 * time.Minute

// launchPayload is the signed content of a launch token.
type launchPayload struct {
	Subject  string `json:"sub"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
	Nonce    string `json:"jti"`
}

// Authority mints launch tokens and validates them with replay protection.
// The outstanding-nonce set is the one piece of shared mutable state; the
// check-and-consume in ValidateLaunchToken holds the mutex across both steps
// so two concurrent validations of the same token cannot both succeed.
type Authority struct {
	macKey   []byte
	subjects map[string]struct{}
	now      func() time.Time

	mu          sync.Mutex
	outstanding map[string]string // nonce -> subject
	consumed    map[string]struct{}
}

// NewAuthority creates an Authority that issues for the given subjects. The
// MAC key is derived from the application identifier, so the manager and the
// worker derive the same key without any shared state.
func NewAuthority(subjects ...string) *Authority {
	return newAuthority(launchMACKey(), subjects...)
}

func newAuthority(macKey []byte, subjects ...string) *Authority {
	subjectSet := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		subjectSet[s] = struct{}{}
	}
	return &Authority{
		macKey:      macKey,
		subjects:    subjectSet,
		now:         time.Now,
		outstanding: make(map[string]string),
		consumed:    make(map[string]struct{}),
	}
}

func launchMACKey() []byte {
	return secrets.DeriveSubKey(branding.AppIdentifier(), "launch-token")
}

// IssueLaunchToken mints a fresh single-use token for a subject and records
// its nonce as outstanding.
func (a *Authority) IssueLaunchToken(subject string) (string, error) {
	if _, ok := a.subjects[subject]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}

	now := a.now().UTC()
	payload := launchPayload{
		Subject:  subject,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(LaunchTokenTTL).Unix(),
		Nonce:    uuid.NewString(),
	}

	encoded, err := encodeLaunchToken(a.macKey, payload)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.outstanding[payload.Nonce] = subject
	a.mu.Unlock()

	return encoded, nil
}

// ValidateLaunchToken verifies signature, expiry, and subject, then consumes
// the nonce. Validity requires all three AND that the token has not been
// consumed before; the first successful call wins, every later call fails
// with ErrAlreadyConsumed.
func (a *Authority) ValidateLaunchToken(tok string) (string, error) {
	payload, err := decodeLaunchToken(a.macKey, tok)
	if err != nil {
		return "", err
	}
	if _, ok := a.subjects[payload.Subject]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubject, payload.Subject)
	}
	if a.now().UTC().Unix() >= payload.Expiry {
		return "", ErrExpired
	}

	// Check-and-consume must be one indivisible operation.
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, done := a.consumed[payload.Nonce]; done {
		return "", ErrAlreadyConsumed
	}
	if _, ok := a.outstanding[payload.Nonce]; !ok {
		// Never issued by this authority instance. Nonce state is
		// process-local, so an unknown nonce is treated as spent.
		return "", ErrAlreadyConsumed
	}
	delete(a.outstanding, payload.Nonce)
	a.consumed[payload.Nonce] = struct{}{}

	return payload.Subject, nil
}

// VerifyLaunchToken is the stateless check the worker runs at its own
// startup: signature, expiry, and subject match. Replay protection lives on
// the manager side; the worker's defense is the short validity window.
func VerifyLaunchToken(tok, subject string) error {
	payload, err := decodeLaunchToken(launchMACKey(), tok)
	if err != nil {
		return err
	}
	if payload.Subject != subject {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, payload.Subject)
	}
	if time.Now().UTC().Unix() >= payload.Expiry {
		return ErrExpired
	}
	return nil
}

func encodeLaunchToken(macKey []byte, payload launchPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding launch token: %w", err)
	}

	mac := hmac.New(sha256.New, macKey)
	mac.Write(body)

	return base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func decodeLaunchToken(macKey []byte, tok string) (*launchPayload, error) {
	parts := strings.Split(strings.TrimSpace(tok), ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: malformed token", ErrBadSignature)
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	mac := hmac.New(sha256.New, macKey)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, ErrBadSignature
	}

	var payload launchPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if payload.Subject == "" || payload.Nonce == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrBadSignature)
	}
	return &payload, nil
}
