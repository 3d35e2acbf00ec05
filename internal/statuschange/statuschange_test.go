package statuschange

import (
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	in := Input{
		EntityType: "task",
		EntityID:   "t1",
		OldStatus:  "todo",
		NewStatus:  "in_progress",
	}
	got := describe(in)
	want := "task t1 todo -> in_progress at "
	if !strings.HasPrefix(got, want) {
		t.Fatalf("describe() = %q, want prefix %q", got, want)
	}
}
