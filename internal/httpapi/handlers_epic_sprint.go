package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/epic"
	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/httpresp"
)

func epicNotFoundErr(id string) error {
	return errs.New(errs.Code("epic_not_found"), "epic not found", http.StatusNotFound).WithDetails("epicId", id)
}

type epicCheckRequest struct {
	ProposedID string `json:"proposedId"`
}

func (s *Server) handleEpicCheck(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	var req epicCheckRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.Epics.Check(r.Context(), graphID, req.ProposedID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, result)
}

type epicCreateRequest struct {
	ProposedID string `json:"proposedId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

func (s *Server) handleEpicCreate(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)
	var req epicCreateRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	created, err := s.Epics.Create(r.Context(), graphID, req.ProposedID, req.Title, principal.UserID, req.Content)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusCreated, created)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleEpicStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)
	id := chi.URLParam(r, "id")

	var req statusRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := s.Epics.SetStatus(r.Context(), id, graphID, req.Status, principal.UserID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.StatusChangesTotal.WithLabelValues("ginko-api", epic.EntityType).Inc()
	}
	httpresp.WriteJSON(w, http.StatusOK, updated)
}

type epicDecomposeRequest struct {
	EpicID string `json:"epicId"`
}

func (s *Server) handleEpicDecompose(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	var req epicDecomposeRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.Epics.Check(r.Context(), graphID, req.EpicID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	if !result.Exists {
		httpresp.WriteError(w, r, epicNotFoundErr(req.EpicID))
		return
	}

	suggestions, err := s.Decompose.Decompose(r.Context(), result.Title, result.Title)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

type sprintCreateRequest struct {
	EpicID string `json:"epicId"`
	Title  string `json:"title"`
}

func (s *Server) handleSprintCreate(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	var req sprintCreateRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	created, err := s.Sprints.Create(r.Context(), graphID, req.EpicID, req.Title)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSprintStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)
	id := chi.URLParam(r, "id")

	var req statusRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := s.Sprints.SetStatus(r.Context(), id, graphID, req.Status, principal.UserID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, updated)
}
