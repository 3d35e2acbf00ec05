package event

import "testing"

func TestMatchesFilter_AgentID(t *testing.T) {
	ev := Event{UserID: "agent-1", Category: "decision"}
	if !matchesFilter(ev, StreamFilter{AgentID: "agent-1"}) {
		t.Error("expected match for equal AgentID")
	}
	if matchesFilter(ev, StreamFilter{AgentID: "agent-2"}) {
		t.Error("expected no match for different AgentID")
	}
}

func TestMatchesFilter_Categories(t *testing.T) {
	ev := Event{Category: "git"}
	if !matchesFilter(ev, StreamFilter{}) {
		t.Error("expected match when no category filter is set")
	}
	if !matchesFilter(ev, StreamFilter{Categories: []string{"decision", "git"}}) {
		t.Error("expected match for an included category")
	}
	if matchesFilter(ev, StreamFilter{Categories: []string{"decision"}}) {
		t.Error("expected no match for an excluded category")
	}
}

func TestMatchesFilter_CombinesAgentAndCategory(t *testing.T) {
	ev := Event{UserID: "agent-1", Category: "git"}
	f := StreamFilter{AgentID: "agent-1", Categories: []string{"decision"}}
	if matchesFilter(ev, f) {
		t.Error("expected no match when category filter excludes the event")
	}
}
