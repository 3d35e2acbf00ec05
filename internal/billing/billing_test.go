package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ginkoai/ginko/internal/logging"
	"github.com/ginkoai/ginko/internal/relational"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	signed := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", ts, sig)
}

// newTestReconciler wires a Reconciler against an httptest PostgREST fake
// that reports no prior billing event and accepts the audit insert.
func newTestReconciler(t *testing.T) (*Reconciler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "billing_events"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("[]"))
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "billing_events"):
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	client := relational.NewClient(srv.URL, "service-role-key")
	repo := relational.NewRepository(client)
	log := logging.New("billing-test", "error", "text")
	return NewReconciler(repo, testWebhookSecret, "sk_test_unused", log), srv
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	r, srv := newTestReconciler(t)
	defer srv.Close()

	err := r.HandleWebhook(context.Background(), []byte(`{"id":"evt_1"}`), "t=1,v1=bogus")
	if err == nil {
		t.Fatal("HandleWebhook() error = nil, want signature error")
	}
}

func TestHandleWebhook_UnknownEventTypeIsNoop(t *testing.T) {
	r, srv := newTestReconciler(t)
	defer srv.Close()

	payload := []byte(`{"id":"evt_unknown","type":"customer.created","data":{"object":{}}}`)
	sig := signPayload(payload, testWebhookSecret)

	if err := r.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook() error = %v, want nil for unhandled event type", err)
	}
}
