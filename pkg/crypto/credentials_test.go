package crypto

import (
	"strings"
	"testing"
)

const testKey = "3f9c2b1a4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"

func TestSecretBoxRoundTrip(t *testing.T) {
	box, err := NewSecretBox(testKey)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}

	sealed, err := box.Encrypt("vt_live_abc123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "vt_live_abc123" {
		t.Fatal("ciphertext must not equal plaintext")
	}

	opened, err := box.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if opened != "vt_live_abc123" {
		t.Fatalf("unexpected plaintext %q", opened)
	}
}

func TestSecretBoxRejectsWrongKey(t *testing.T) {
	box, err := NewSecretBox(testKey)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	sealed, err := box.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	other, err := NewSecretBox(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	if _, err := other.Decrypt(sealed); err == nil {
		t.Fatal("expected decryption failure with wrong key")
	}
}

func TestSecretBoxValidatesKey(t *testing.T) {
	if _, err := NewSecretBox(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewSecretBox("abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := NewSecretBox("zz" + testKey[2:]); err == nil {
		t.Fatal("expected error for non-hex key")
	}
}
