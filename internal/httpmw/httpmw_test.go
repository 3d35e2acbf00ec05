package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuditLog_RecordAndFilter(t *testing.T) {
	a := NewAuditLog(10)
	a.record(AuditEntry{Method: "GET", Path: "/task/1", Status: 200, UserID: "u1", Timestamp: time.Now()})
	a.record(AuditEntry{Method: "POST", Path: "/task", Status: 500, UserID: "u2", Timestamp: time.Now()})

	all := a.Entries("", "", 0)
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	byUser := a.Entries("u1", "", 0)
	if len(byUser) != 1 || byUser[0].UserID != "u1" {
		t.Fatalf("Entries(u1) = %+v, want one entry for u1", byUser)
	}

	byStatus := a.Entries("", "", 500)
	if len(byStatus) != 1 || byStatus[0].Status != 500 {
		t.Fatalf("Entries(minStatus=500) = %+v, want one entry with status 500", byStatus)
	}

	byPath := a.Entries("", "/task/", 0)
	if len(byPath) != 1 || byPath[0].Path != "/task/1" {
		t.Fatalf("Entries(pathPrefix=/task/) = %+v, want one entry", byPath)
	}
}

func TestAuditLog_BoundedCapacity(t *testing.T) {
	a := NewAuditLog(2)
	for i := 0; i < 5; i++ {
		a.record(AuditEntry{Method: "GET", Path: "/x", Status: 200})
	}
	if got := len(a.Entries("", "", 0)); got != 2 {
		t.Fatalf("len(Entries()) = %d, want 2 (capacity-bounded)", got)
	}
}

func TestNewAuditLog_DefaultsCapacity(t *testing.T) {
	a := NewAuditLog(0)
	if a.cap != 1000 {
		t.Errorf("cap = %d, want default 1000", a.cap)
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.RemoteAddr = "10.0.0.1:1234"
	if got := clientIP(req); got != "203.0.113.5" {
		t.Errorf("clientIP() = %q, want forwarded value", got)
	}
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := clientIP(req); got != "10.0.0.1:1234" {
		t.Errorf("clientIP() = %q, want remote addr", got)
	}
}
