package task

import "testing"

func TestLevel(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "cold"},
		{1, "warm"},
		{29, "warm"},
		{30, "hot"},
		{69, "hot"},
		{70, "blazing"},
		{100, "blazing"},
	}
	for _, tc := range cases {
		if got := level(tc.score); got != tc.want {
			t.Errorf("level(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
