package graph

import (
	"testing"
	"time"
)

func TestStringProp(t *testing.T) {
	props := map[string]interface{}{"title": "hello", "count": 3}
	if got := StringProp(props, "title"); got != "hello" {
		t.Errorf("StringProp(title) = %q, want hello", got)
	}
	if got := StringProp(props, "count"); got != "" {
		t.Errorf("StringProp(count) = %q, want empty for wrong type", got)
	}
	if got := StringProp(props, "missing"); got != "" {
		t.Errorf("StringProp(missing) = %q, want empty", got)
	}
}

func TestBoolProp(t *testing.T) {
	props := map[string]interface{}{"active": true}
	if !BoolProp(props, "active") {
		t.Error("BoolProp(active) = false, want true")
	}
	if BoolProp(props, "missing") {
		t.Error("BoolProp(missing) = true, want false")
	}
}

func TestInt64Prop(t *testing.T) {
	cases := []struct {
		name string
		val  interface{}
		want int64
	}{
		{"int64", int64(42), 42},
		{"int", 7, 7},
		{"float64", 9.0, 9},
		{"string", "not a number", 0},
	}
	for _, tc := range cases {
		props := map[string]interface{}{"n": tc.val}
		if got := Int64Prop(props, "n"); got != tc.want {
			t.Errorf("Int64Prop(%s) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestStringSliceProp(t *testing.T) {
	props := map[string]interface{}{
		"files": []interface{}{"a.go", "b.go", 5},
	}
	got := StringSliceProp(props, "files")
	if len(got) != 2 || got[0] != "a.go" || got[1] != "b.go" {
		t.Fatalf("StringSliceProp() = %v, want [a.go b.go]", got)
	}
	if got := StringSliceProp(props, "missing"); got != nil {
		t.Errorf("StringSliceProp(missing) = %v, want nil", got)
	}
}

func TestTimeProp(t *testing.T) {
	ts := "2026-01-15T10:30:00Z"
	props := map[string]interface{}{"createdAt": ts}
	got := TimeProp(props, "createdAt")
	want, _ := time.Parse(time.RFC3339Nano, ts)
	if !got.Equal(want) {
		t.Errorf("TimeProp() = %v, want %v", got, want)
	}
	if got := TimeProp(props, "missing"); !got.IsZero() {
		t.Errorf("TimeProp(missing) = %v, want zero", got)
	}
	if got := TimeProp(map[string]interface{}{"bad": "not-a-time"}, "bad"); !got.IsZero() {
		t.Errorf("TimeProp(malformed) = %v, want zero", got)
	}
}
