package checkpoint

import "testing"

func TestToAnySlice(t *testing.T) {
	got := toAnySlice([]string{"a.go", "b.go"})
	if len(got) != 2 {
		t.Fatalf("len(toAnySlice()) = %d, want 2", len(got))
	}
	if got[0] != "a.go" || got[1] != "b.go" {
		t.Errorf("toAnySlice() = %v, want [a.go b.go]", got)
	}
}

func TestToAnySlice_Empty(t *testing.T) {
	got := toAnySlice(nil)
	if len(got) != 0 {
		t.Fatalf("len(toAnySlice(nil)) = %d, want 0", len(got))
	}
}
