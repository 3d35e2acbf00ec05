// Package httpresp provides the JSON response envelope shared by every handler.
package httpresp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/logging"
)

// ErrorBody is the inner object of the {"error": {...}} envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the wire shape for every non-2xx response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

var log = logging.NewFromEnv("httpresp")

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("write json response")
	}
}

// WriteError writes the {"error":{"code","message"}} envelope for err.
// If err is not a *errs.ServiceError it is reported as an internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	se := errs.As(err)
	if se == nil {
		se = errs.ErrInternal(err)
	}
	if traceID := logging.GetTraceID(r.Context()); traceID != "" {
		w.Header().Set("X-Trace-ID", traceID)
	}
	WriteJSON(w, se.HTTPStatus, ErrorEnvelope{Error: ErrorBody{Code: string(se.Code), Message: se.Message}})
}

// DecodeJSON decodes the request body into v, writing a validation error response on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, r, errs.New(errs.MissingField, "invalid or missing request body", http.StatusBadRequest))
		return false
	}
	return true
}

// QueryInt reads an integer query parameter, returning def if absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

// QueryString reads a string query parameter, returning def if absent.
func QueryString(r *http.Request, key, def string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def
	}
	return val
}

// QueryBool reads a boolean-ish query parameter.
func QueryBool(r *http.Request, key string, def bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def
	}
	return val == "true" || val == "1" || val == "yes"
}

// QueryCSV splits a comma-separated query parameter into trimmed, non-empty parts.
func QueryCSV(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Pagination extracts bounded offset/limit query parameters.
func Pagination(r *http.Request, defaultLimit, maxLimit int) (offset, limit int) {
	offset = QueryInt(r, "offset", 0)
	limit = QueryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
