package document

import "testing"

func TestDepthLiteral_ClampsRange(t *testing.T) {
	cases := []struct {
		depth int
		want  string
	}{
		{-1, "1"},
		{0, "1"},
		{1, "1"},
		{3, "3"},
		{5, "5"},
		{6, "5"},
		{100, "5"},
	}
	for _, tc := range cases {
		if got := depthLiteral(tc.depth); got != tc.want {
			t.Errorf("depthLiteral(%d) = %q, want %q", tc.depth, got, tc.want)
		}
	}
}

func TestToAnySlice(t *testing.T) {
	got := toAnySlice([]string{"a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("toAnySlice() = %v, want [a b]", got)
	}
}
