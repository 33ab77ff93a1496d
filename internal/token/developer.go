package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

// DeveloperTokenTTL is the validity window of a developer token. It travels
// with a trusted operator, not on a worker command line, so it lives longer
// than a launch token.
const DeveloperTokenTTL = 24 * time.Hour

const developerPurpose = "dev-operations"

// DeveloperClaims is the payload of a developer token.
type DeveloperClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer issues developer tokens with the RSA private key.
type Signer struct {
	configDir string
	now       func() time.Time
}

// NewSigner creates a Signer using keys under configDir, generating them on
// first use.
func NewSigner(configDir string) *Signer {
	return &Signer{configDir: configDir, now: time.Now}
}

// IssueDeveloperToken mints an RS256-signed token carrying the developer
// role claim.
func (s *Signer) IssueDeveloperToken(subject string) (string, error) {
	privPath, _, err := EnsureKeys(s.configDir)
	if err != nil {
		return "", err
	}
	key, err := loadPrivateKey(privPath)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	claims := DeveloperClaims{
		Purpose: developerPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    branding.DisplayName(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(DeveloperTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// Verifier validates developer tokens against the public key only. The check
// is pure signature verification plus claim inspection — no state, no nonce
// bookkeeping.
type Verifier struct {
	configDir string
}

// NewVerifier creates a Verifier using the public key under configDir.
func NewVerifier(configDir string) *Verifier {
	return &Verifier{configDir: configDir}
}

// ValidateDeveloperToken verifies the signature and claims and returns the
// parsed claims. Expiry maps to ErrExpired; every other verification failure
// maps to ErrBadSignature.
func (v *Verifier) ValidateDeveloperToken(tok string) (*DeveloperClaims, error) {
	_, pubPath, err := EnsureKeys(v.configDir)
	if err != nil {
		return nil, err
	}
	key, err := loadPublicKey(pubPath)
	if err != nil {
		return nil, err
	}

	claims := &DeveloperClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !parsed.Valid {
		return nil, ErrBadSignature
	}
	if claims.Purpose != developerPurpose {
		return nil, fmt.Errorf("%w: wrong purpose %q", ErrBadSignature, claims.Purpose)
	}
	return claims, nil
}
