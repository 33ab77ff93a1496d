package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	k1 := DeriveKey("DevManager-v0.1.0")
	k2 := DeriveKey("DevManager-v0.1.0")
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase must derive the same key")
	}
	if len(k1) != 32 {
		t.Errorf("key length = %d, want 32", len(k1))
	}

	other := DeriveKey("DevManager-v0.2.0")
	if bytes.Equal(k1, other) {
		t.Error("different passphrases must derive different keys")
	}
}

func TestDeriveSubKeyIndependent(t *testing.T) {
	base := DeriveKey("app")
	sub := DeriveSubKey("app", "launch-token")
	if bytes.Equal(base, sub) {
		t.Error("sub key must differ from base key")
	}
	if !bytes.Equal(sub, DeriveSubKey("app", "launch-token")) {
		t.Error("sub key derivation must be deterministic")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := DeriveKey("test-app")

	sealed, err := Seal(key, "ghp_example_credential")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	plaintext, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plaintext != "ghp_example_credential" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestSealDeterministic(t *testing.T) {
	key := DeriveKey("test-app")

	a, err := Seal(key, "secret-value")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seal(key, "secret-value")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical key+plaintext must seal to identical ciphertext")
	}
}

func TestOpenDetectsCorruption(t *testing.T) {
	key := DeriveKey("test-app")
	sealed, err := Seal(key, "secret-value")
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		t.Fatal(err)
	}

	// Flip one byte anywhere in the ciphertext: authentication must fail,
	// never a different plaintext.
	for i := range raw {
		corrupted := make([]byte, len(raw))
		copy(corrupted, raw)
		corrupted[i] ^= 0x01

		_, err := Open(key, base64.URLEncoding.EncodeToString(corrupted))
		if !errors.Is(err, ErrSecretUnavailable) {
			t.Fatalf("byte %d: corruption not detected, err = %v", i, err)
		}
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	key := DeriveKey("test-app")

	cases := []string{
		"",
		"not base64 !!!",
		base64.URLEncoding.EncodeToString([]byte("short")),
	}
	for _, c := range cases {
		if _, err := Open(key, c); !errors.Is(err, ErrSecretUnavailable) {
			t.Errorf("Open(%q) err = %v, want ErrSecretUnavailable", c, err)
		}
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal(DeriveKey("app-a"), "secret-value")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(DeriveKey("app-b"), sealed); !errors.Is(err, ErrSecretUnavailable) {
		t.Errorf("err = %v, want ErrSecretUnavailable", err)
	}
}
