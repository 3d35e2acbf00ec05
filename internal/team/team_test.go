package team

import "testing"

func TestRandomCode(t *testing.T) {
	a, err := randomCode()
	if err != nil {
		t.Fatalf("randomCode() error = %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("len(randomCode()) = %d, want 32 hex chars for 16 bytes", len(a))
	}

	b, err := randomCode()
	if err != nil {
		t.Fatalf("randomCode() error = %v", err)
	}
	if a == b {
		t.Fatal("randomCode() produced the same value twice")
	}
}
