package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/task"
)

// withURLParam attaches a chi route param the way the router would, so
// handlers reading chi.URLParam(r, ...) work under direct invocation.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleTaskStatus_MissingBlockedReason(t *testing.T) {
	s := &Server{Tasks: task.NewStore(nil, nil, nil)}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/task/TASK-1/status?graphId=g1", strings.NewReader(`{"status":"blocked"}`))
	req = withURLParam(req, "id", "TASK-1")
	w := httptest.NewRecorder()

	s.handleTaskStatus(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a blocked transition missing blockedReason", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(errs.MissingBlockedReason)) {
		t.Errorf("body = %s, want error code %q", w.Body.String(), errs.MissingBlockedReason)
	}
}

func TestHandleTaskStatus_InvalidStatus(t *testing.T) {
	s := &Server{Tasks: task.NewStore(nil, nil, nil)}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/task/TASK-1/status?graphId=g1", strings.NewReader(`{"status":"not_a_real_status"}`))
	req = withURLParam(req, "id", "TASK-1")
	w := httptest.NewRecorder()

	s.handleTaskStatus(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an invalid status", w.Code)
	}
}

func TestHandleTaskStatus_MalformedBody(t *testing.T) {
	s := &Server{Tasks: task.NewStore(nil, nil, nil)}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/task/TASK-1/status?graphId=g1", strings.NewReader(`{not json`))
	req = withURLParam(req, "id", "TASK-1")
	w := httptest.NewRecorder()

	s.handleTaskStatus(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a malformed body", w.Code)
	}
}

func TestHandleTaskClaim_MalformedBody(t *testing.T) {
	s := &Server{Tasks: task.NewStore(nil, nil, nil)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/task/TASK-1/claim?graphId=g1", strings.NewReader(`not json at all`))
	req = withURLParam(req, "id", "TASK-1")
	w := httptest.NewRecorder()

	s.handleTaskClaim(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an undecodable claim body", w.Code)
	}
}
