package httpresp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ginkoai/ginko/internal/errs"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["id"] != "abc" {
		t.Fatalf("body[id] = %q, want abc", body["id"])
	}
}

func TestWriteError_ServiceError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, r, errs.ErrTaskNotFound("t1"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != "task_not_found" {
		t.Fatalf("code = %q, want task_not_found", env.Error.Code)
	}
}

func TestWriteError_NonServiceErrorFallsBackToInternal(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, r, errNotAServiceError{})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

type errNotAServiceError struct{}

func (errNotAServiceError) Error() string { return "plain failure" }

func TestDecodeJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))

	var payload struct {
		Name string `json:"name"`
	}
	ok := DecodeJSON(w, r, &payload)
	if !ok {
		t.Fatal("DecodeJSON() ok = false, want true")
	}
	if payload.Name != "x" {
		t.Fatalf("Name = %q, want x", payload.Name)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))

	var payload struct{}
	ok := DecodeJSON(w, r, &payload)
	if ok {
		t.Fatal("DecodeJSON() ok = true, want false")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&name=foo&active=true&tags=a, b ,,c", nil)

	if got := QueryInt(r, "limit", 10); got != 5 {
		t.Errorf("QueryInt = %d, want 5", got)
	}
	if got := QueryInt(r, "missing", 10); got != 10 {
		t.Errorf("QueryInt default = %d, want 10", got)
	}
	if got := QueryString(r, "name", "bar"); got != "foo" {
		t.Errorf("QueryString = %q, want foo", got)
	}
	if got := QueryString(r, "missing", "bar"); got != "bar" {
		t.Errorf("QueryString default = %q, want bar", got)
	}
	if got := QueryBool(r, "active", false); !got {
		t.Error("QueryBool = false, want true")
	}
	if got := QueryBool(r, "missing", true); !got {
		t.Error("QueryBool default = false, want true")
	}
	if got := QueryCSV(r, "tags"); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("QueryCSV = %v, want [a b c]", got)
	}
	if got := QueryCSV(r, "missing"); got != nil {
		t.Errorf("QueryCSV = %v, want nil", got)
	}
}

func TestPagination_ClampsToMax(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-5", nil)
	offset, limit := Pagination(r, 20, 100)
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if limit != 100 {
		t.Errorf("limit = %d, want 100", limit)
	}
}

func TestPagination_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	offset, limit := Pagination(r, 20, 100)
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if limit != 20 {
		t.Errorf("limit = %d, want 20", limit)
	}
}

func TestPagination_LimitFloor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	_, limit := Pagination(r, 20, 100)
	if limit != 1 {
		t.Errorf("limit = %d, want 1", limit)
	}
}
