package graphns

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Cool Project", "my-cool-project"},
		{"already-slug_ok", "already-slug-ok"},
		{"!!!", "project"},
		{"", "project"},
	}
	for _, tc := range cases {
		if got := slug(tc.in); got != tc.want {
			t.Errorf("slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShortID_Length(t *testing.T) {
	id := shortID()
	if len(id) != 8 {
		t.Fatalf("shortID() length = %d, want 8", len(id))
	}
}

func TestShortID_Unique(t *testing.T) {
	if shortID() == shortID() {
		t.Fatal("shortID() produced the same value twice")
	}
}
