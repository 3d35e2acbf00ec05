package httpapi

import (
	"net/http"

	"github.com/ginkoai/ginko/internal/httpresp"
)

// handleAdminAudit serves recent request audit entries, filterable by the
// same fields AuditLog.Entries understands.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if s.AuditLog == nil {
		httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": []interface{}{}})
		return
	}
	userID := httpresp.QueryString(r, "user_id", "")
	pathPrefix := httpresp.QueryString(r, "path_prefix", "")
	minStatus := httpresp.QueryInt(r, "min_status", 0)

	entries := s.AuditLog.Entries(userID, pathPrefix, minStatus)
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
