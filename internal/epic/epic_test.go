package epic

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"EPIC-042", "EPIC-042"},
		{"42", "EPIC-042"},
		{"epic 42", "EPIC-042"},
		{"no-digits-here", "no-digits-here"},
	}
	for _, tc := range cases {
		if got := Canonicalize(tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNextAvailableID(t *testing.T) {
	if got := nextAvailableID("EPIC-042"); got != "EPIC-043" {
		t.Errorf("nextAvailableID(EPIC-042) = %q, want EPIC-043", got)
	}
	if got := nextAvailableID("not-canonical"); got != "not-canonical" {
		t.Errorf("nextAvailableID(not-canonical) = %q, want unchanged", got)
	}
}

func TestFromProps(t *testing.T) {
	props := map[string]interface{}{
		"id":        "EPIC-001",
		"graphId":   "g-1",
		"title":     "Ship the thing",
		"createdBy": "user-1",
		"createdAt": "2026-01-01T00:00:00Z",
		"status":    "active",
		"content":   "body",
	}
	e := fromProps(props)
	if e.ID != "EPIC-001" || e.GraphID != "g-1" || e.Title != "Ship the thing" || e.Status != "active" {
		t.Fatalf("fromProps() = %+v, unexpected fields", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("fromProps() CreatedAt is zero, want parsed time")
	}
}
