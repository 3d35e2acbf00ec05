package httpapi

import (
	"testing"

	"github.com/ginkoai/ginko/internal/graphns"
)

func TestIsTestNamed(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"test", true},
		{"testing", true},
		{"Testing", true},
		{"demo", true},
		{"DEMO", true},
		{"scratch", true},
		{"Scratch", true},
		{"my-project", false},
		{"tes", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isTestNamed(tc.name); got != tc.want {
			t.Errorf("isTestNamed(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSelectDefault_PrefersNonTestNamed(t *testing.T) {
	projects := []graphns.Namespace{
		{GraphID: "g-test", ProjectName: "test-project"},
		{GraphID: "g-real", ProjectName: "acme-backend"},
	}
	if got := selectDefault(projects); got != "g-real" {
		t.Errorf("selectDefault() = %q, want %q", got, "g-real")
	}
}

func TestSelectDefault_FallsBackToFirstWhenAllTestNamed(t *testing.T) {
	projects := []graphns.Namespace{
		{GraphID: "g-demo", ProjectName: "demo"},
		{GraphID: "g-scratch", ProjectName: "scratch"},
	}
	if got := selectDefault(projects); got != "g-demo" {
		t.Errorf("selectDefault() = %q, want %q", got, "g-demo")
	}
}
