package sprint

import "testing"

func TestFromProps(t *testing.T) {
	props := map[string]interface{}{
		"id":      "SPRINT-1",
		"graphId": "g-1",
		"epicId":  "EPIC-001",
		"title":   "Sprint 1",
		"status":  "active",
	}
	s := fromProps(props)
	if s.ID != "SPRINT-1" || s.GraphID != "g-1" || s.EpicID != "EPIC-001" || s.Title != "Sprint 1" || s.Status != "active" {
		t.Fatalf("fromProps() = %+v, unexpected fields", s)
	}
}

func TestFromProps_MissingFieldsDefaultEmpty(t *testing.T) {
	s := fromProps(map[string]interface{}{})
	if s.ID != "" || s.GraphID != "" || s.EpicID != "" || s.Title != "" || s.Status != "" {
		t.Fatalf("fromProps({}) = %+v, want all empty strings", s)
	}
}
