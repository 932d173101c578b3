package memory

import (
	"context"
	"testing"
)

func TestCredentialStore_Resolve(t *testing.T) {
	t.Parallel()

	s := NewCredentialStore(map[string]string{"weather-1": "tok-abc"})

	got, err := s.Resolve(context.Background(), "weather-1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != "tok-abc" {
		t.Errorf("Resolve(weather-1) = %q, want tok-abc", got)
	}

	missing, err := s.Resolve(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Resolve(unknown) error: %v", err)
	}
	if missing != "" {
		t.Errorf("Resolve(unknown) = %q, want empty", missing)
	}
}

func TestCredentialStore_Set(t *testing.T) {
	t.Parallel()

	s := NewCredentialStore(nil)
	s.Set("crypto-1", "tok-xyz")

	got, err := s.Resolve(context.Background(), "crypto-1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != "tok-xyz" {
		t.Errorf("Resolve(crypto-1) = %q, want tok-xyz", got)
	}
}
