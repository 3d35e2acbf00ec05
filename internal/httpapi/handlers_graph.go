package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/graphns"
	"github.com/ginkoai/ginko/internal/httpresp"
)

type graphInitRequest struct {
	ProjectName  string `json:"projectName"`
	ProjectPath  string `json:"projectPath"`
	Visibility   string `json:"visibility"`
	Organization string `json:"organization"`
}

type graphInitResponse struct {
	GraphID                string    `json:"graphId"`
	Namespace               string    `json:"namespace"`
	Status                  string    `json:"status"`
	EstimatedProcessingTime int       `json:"estimatedProcessingTime"`
	CreatedAt               time.Time `json:"createdAt"`
}

func (s *Server) handleGraphInit(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		httpresp.WriteError(w, r, errs.ErrAuthRequired())
		return
	}
	var req graphInitRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	ns, err := s.GraphNS.Init(r.Context(), graphns.InitInput{
		ProjectName: req.ProjectName, ProjectPath: req.ProjectPath,
		Visibility: req.Visibility, Organization: req.Organization, UserID: principal.UserID,
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusCreated, graphInitResponse{
		GraphID: ns.GraphID, Namespace: ns.Namespace, Status: ns.Status,
		EstimatedProcessingTime: 0, CreatedAt: ns.CreatedAt,
	})
}

type userGraphResponse struct {
	DefaultGraphID string              `json:"defaultGraphId"`
	Source         string              `json:"source"`
	Projects       []graphns.Namespace `json:"projects"`
}

func (s *Server) handleUserGraph(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		httpresp.WriteError(w, r, errs.ErrAuthRequired())
		return
	}

	owned, err := s.GraphNS.ListOwned(r.Context(), principal.UserID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	if len(owned) == 0 {
		httpresp.WriteJSON(w, http.StatusOK, userGraphResponse{Source: "none", Projects: []graphns.Namespace{}})
		return
	}

	defaultID := selectDefault(owned)
	httpresp.WriteJSON(w, http.StatusOK, userGraphResponse{
		DefaultGraphID: defaultID, Source: "owner", Projects: owned,
	})
}

// selectDefault prefers non-test-named, owned projects.
func selectDefault(projects []graphns.Namespace) string {
	for _, p := range projects {
		if !isTestNamed(p.ProjectName) {
			return p.GraphID
		}
	}
	return projects[0].GraphID
}

func isTestNamed(name string) bool {
	lower := []rune(name)
	for i := range lower {
		if lower[i] >= 'A' && lower[i] <= 'Z' {
			lower[i] += 'a' - 'A'
		}
	}
	s := string(lower)
	return len(s) >= 4 && (s[:4] == "test" || s == "demo" || s == "scratch")
}

type membershipSyncRequest struct {
	SyncedAt *time.Time `json:"syncedAt"`
}

func (s *Server) handleMembershipSync(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)

	var req membershipSyncRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	syncedAt := time.Time{}
	if req.SyncedAt != nil {
		syncedAt = *req.SyncedAt
	}

	if err := s.Team.SyncMembership(r.Context(), graphID, principal.UserID, syncedAt); err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"synced": true})
}
