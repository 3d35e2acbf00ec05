package decompose

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ginkoai/ginko/internal/errs"
)

func TestDecompose_NotConfigured(t *testing.T) {
	c := NewClient("")
	_, err := c.Decompose(context.Background(), "Epic", "content")
	if se := errs.As(err); se == nil || se.Code != errs.AIServiceNotConfigured {
		t.Fatalf("Decompose() error = %v, want ErrAIServiceNotConfigured", err)
	}
}

func TestDecompose_NilClient(t *testing.T) {
	var c *Client
	_, err := c.Decompose(context.Background(), "Epic", "content")
	if se := errs.As(err); se == nil || se.Code != errs.AIServiceNotConfigured {
		t.Fatalf("Decompose() error = %v, want ErrAIServiceNotConfigured", err)
	}
}

func TestDecompose_Success(t *testing.T) {
	suggestionsJSON := `[{"title":"Write schema","description":"Define the graph schema"},{"title":"Add handler","description":"Wire the HTTP route"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if !strings.Contains(body.Messages[0].Content, "My Epic") {
			t.Errorf("request content = %q, want it to mention epic title", body.Messages[0].Content)
		}
		resp := anthropicResponse{Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: suggestionsJSON}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	got, err := c.Decompose(context.Background(), "My Epic", "epic body")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Title != "Write schema" {
		t.Errorf("got[0].Title = %q, want %q", got[0].Title, "Write schema")
	}
}

func TestDecompose_TruncatesToMaxSuggestions(t *testing.T) {
	items := make([]Suggestion, 25)
	for i := range items {
		items[i] = Suggestion{Title: "task", Description: "d"}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: string(raw)}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	got, err := c.Decompose(context.Background(), "Epic", "content")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if len(got) != maxSuggestions {
		t.Fatalf("len(got) = %d, want %d", len(got), maxSuggestions)
	}
}

func TestDecompose_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	_, err := c.Decompose(context.Background(), "Epic", "content")
	if se := errs.As(err); se == nil || se.Code != errs.AIServiceError {
		t.Fatalf("Decompose() error = %v, want ErrAIServiceError", err)
	}
}

func TestDecompose_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{})
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	_, err := c.Decompose(context.Background(), "Epic", "content")
	if se := errs.As(err); se == nil || se.Code != errs.AIServiceError {
		t.Fatalf("Decompose() error = %v, want ErrAIServiceError", err)
	}
}

func TestDecompose_MalformedSuggestionJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: "not json"}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	_, err := c.Decompose(context.Background(), "Epic", "content")
	if se := errs.As(err); se == nil || se.Code != errs.AIServiceError {
		t.Fatalf("Decompose() error = %v, want ErrAIServiceError", err)
	}
}
