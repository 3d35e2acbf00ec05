package httpapi

import (
	"context"
	"net/http"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/httpresp"
	"github.com/ginkoai/ginko/internal/identity"
	"github.com/ginkoai/ginko/internal/logging"
)

type ctxKey string

const principalKey ctxKey = "principal"

func principalFromContext(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

// authenticate resolves the bearer credential to a principal and attaches it
// to the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.Identity.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			httpresp.WriteError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		ctx = logging.WithUserID(ctx, principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability resolves the caller's capability set against the
// request's graphId and rejects the request unless it grants `cap` (spec
// §4.1 steps 4-6). graphId is read from the query string or JSON body field
// of the same name, depending on method.
func (s *Server) requireCapability(cap identity.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFromContext(r.Context())
		if !ok {
			httpresp.WriteError(w, r, errs.ErrAuthRequired())
			return
		}
		graphID := graphIDFromRequest(r)
		if graphID == "" {
			httpresp.WriteError(w, r, errs.ErrMissingField("graphId"))
			return
		}

		if s.Caps != nil {
			caps, err := s.Caps.Resolve(r.Context(), principal.UserID, graphID)
			if err != nil {
				httpresp.WriteError(w, r, err)
				return
			}
			if !caps.Has(cap) {
				httpresp.WriteError(w, r, errs.ErrAccessDenied())
				return
			}
		} else if _, err := s.Gate.Require(r.Context(), principal.UserID, graphID, cap); err != nil {
			httpresp.WriteError(w, r, err)
			return
		}

		ctx := logging.WithGraphID(r.Context(), graphID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func graphIDFromRequest(r *http.Request) string {
	if v := r.URL.Query().Get("graphId"); v != "" {
		return v
	}
	return r.Header.Get("X-Graph-Id")
}
