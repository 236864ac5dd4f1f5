package payload

import (
	"bytes"
	"testing"
)

func TestNewSealer_RequiresPassphrase(t *testing.T) {
	if _, err := NewSealer(""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("secret")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	plain := []byte(`{"conditions":{"a":true}}`)
	sealed, err := s.Seal(plain)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Equal(sealed, plain) {
		t.Fatal("expected sealed output to differ")
	}
	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("opened=%q want %q", opened, plain)
	}
}

func TestSealer_OpenRejectsGarbage(t *testing.T) {
	s, _ := NewSealer("secret")
	if _, err := s.Open([]byte("not base64 !!")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
	if _, err := s.Open([]byte("AAAA")); err == nil {
		t.Fatal("expected error for short payload")
	}
}
