package httpapi

import (
	"io"
	"net/http"

	"github.com/ginkoai/ginko/internal/httpresp"
)

// handleStripeWebhook verifies and reconciles a Stripe webhook event. It sits
// outside the authenticated /api/v1 group: Stripe signs the payload itself
//.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}

	if err := s.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
