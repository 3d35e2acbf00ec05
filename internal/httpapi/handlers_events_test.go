package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/event"
)

func TestHandleEventsBackward_MissingCursorID(t *testing.T) {
	s := &Server{Events: event.NewStore(nil)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?graphId=g1", nil)
	w := httptest.NewRecorder()

	s.handleEventsBackward(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when cursorId is absent", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(errs.MissingField)) {
		t.Errorf("body = %s, want error code %q", w.Body.String(), errs.MissingField)
	}
}

func TestHandleEventAppend_MissingRequiredFields(t *testing.T) {
	s := &Server{Events: event.NewStore(nil)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"category":"fix"}`))
	w := httptest.NewRecorder()

	s.handleEventAppend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when projectId/graphId are absent", w.Code)
	}
}

func TestHandleEventAppend_MalformedBody(t *testing.T) {
	s := &Server{Events: event.NewStore(nil)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`not json`))
	w := httptest.NewRecorder()

	s.handleEventAppend(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a malformed body", w.Code)
	}
}

func TestParseSince(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?since=2026-01-02T15:04:05Z", nil)
	got := parseSince(req)
	want := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseSince() = %v, want %v", got, want)
	}
}

func TestParseSince_AbsentOrMalformedYieldsZero(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream", nil)
	if got := parseSince(req); !got.IsZero() {
		t.Errorf("parseSince() with no since = %v, want zero time", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?since=not-a-time", nil)
	if got := parseSince(req); !got.IsZero() {
		t.Errorf("parseSince() with malformed since = %v, want zero time", got)
	}
}

// sseRecorder augments httptest.ResponseRecorder with http.Flusher so
// sseSink.Send exercises the real flush path.
type sseRecorder struct {
	*httptest.ResponseRecorder
	flushed int
}

func (r *sseRecorder) Flush() { r.flushed++ }

func TestSSESink_Send_WritesWireFormat(t *testing.T) {
	rec := &sseRecorder{ResponseRecorder: httptest.NewRecorder()}
	sink := &sseSink{w: rec, flusher: rec}

	err := sink.Send(context.Background(), event.Frame{
		ID:   "evt-1",
		Type: "event",
		Data: map[string]string{"hello": "world"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "id: evt-1\n") {
		t.Errorf("body = %q, want an id: line", body)
	}
	if !strings.Contains(body, "event: event\n") {
		t.Errorf("body = %q, want an event: line", body)
	}
	if !strings.Contains(body, `"hello":"world"`) {
		t.Errorf("body = %q, want the marshaled data payload", body)
	}
	if rec.flushed == 0 {
		t.Error("Send() did not flush, SSE frames must reach the client immediately")
	}
}

func TestSSESink_Send_OmitsIDLineWhenAbsent(t *testing.T) {
	rec := &sseRecorder{ResponseRecorder: httptest.NewRecorder()}
	sink := &sseSink{w: rec, flusher: rec}

	if err := sink.Send(context.Background(), event.Frame{Type: "heartbeat", Data: nil}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if strings.Contains(rec.Body.String(), "id: ") {
		t.Errorf("body = %q, want no id: line for a frame without an ID", rec.Body.String())
	}
}
