package httpmw

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLiveHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	LiveHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status field = %q, want alive", body["status"])
	}
}

func TestHealthChecker_ReadyHandler_AllPass(t *testing.T) {
	h := NewHealthChecker()
	h.RegisterCheck("graph", func() error { return nil })
	h.RegisterCheck("relational", func() error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	h.ReadyHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ready" {
		t.Errorf("status.Status = %q, want ready", status.Status)
	}
}

func TestHealthChecker_ReadyHandler_OneFails(t *testing.T) {
	h := NewHealthChecker()
	h.RegisterCheck("graph", func() error { return nil })
	h.RegisterCheck("relational", func() error { return errors.New("connection refused") })

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	h.ReadyHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "not_ready" {
		t.Errorf("status.Status = %q, want not_ready", status.Status)
	}
	if status.Checks["relational"] != "connection refused" {
		t.Errorf("status.Checks[relational] = %q, want the check's error text", status.Checks["relational"])
	}
}
