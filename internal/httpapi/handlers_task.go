package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/checkpoint"
	"github.com/ginkoai/ginko/internal/httpresp"
	"github.com/ginkoai/ginko/internal/task"
)

type taskStatusRequest struct {
	Status        string `json:"status"`
	BlockedReason string `json:"blockedReason"`
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)
	taskID := chi.URLParam(r, "id")

	var req taskStatusRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := s.Tasks.SetStatus(r.Context(), task.SetStatusInput{
		ID: taskID, GraphID: graphID, Status: req.Status,
		BlockedReason: req.BlockedReason, ChangedBy: principal.UserID,
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.StatusChangesTotal.WithLabelValues("ginko-api", task.EntityType).Inc()
	}
	httpresp.WriteJSON(w, http.StatusOK, updated)
}

type taskClaimRequest struct {
	AgentID        string `json:"agentId"`
	OrganizationID string `json:"organizationId"`
}

func (s *Server) handleTaskClaim(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	taskID := chi.URLParam(r, "id")

	var req taskClaimRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := s.Tasks.Claim(r.Context(), taskID, graphID, req.AgentID, req.OrganizationID)
	if s.Metrics != nil {
		result := "claimed"
		if err != nil {
			result = "rejected"
		}
		s.Metrics.TaskClaimsTotal.WithLabelValues("ginko-api", result).Inc()
	}
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, updated)
}

type taskReleaseRequest struct {
	AgentID string `json:"agentId"`
}

func (s *Server) handleTaskRelease(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	taskID := chi.URLParam(r, "id")

	var req taskReleaseRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := s.Tasks.Release(r.Context(), taskID, graphID, req.AgentID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTaskActivity(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	taskID := chi.URLParam(r, "id")

	hotness, err := s.Tasks.Hotness(r.Context(), taskID, graphID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, hotness)
}

type checkpointCreateRequest struct {
	AgentID       string   `json:"agentId"`
	GitCommit     string   `json:"gitCommit"`
	FilesModified []string `json:"filesModified"`
	EventsSince   int64    `json:"eventsSince"`
	Message       string   `json:"message"`
}

func (s *Server) handleCheckpointCreate(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	taskID := chi.URLParam(r, "id")

	var req checkpointCreateRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	cp, err := s.Checkpoints.Create(r.Context(), checkpoint.CreateInput{
		GraphID: graphID, TaskID: taskID, AgentID: req.AgentID,
		GitCommit: req.GitCommit, FilesModified: req.FilesModified,
		EventsSince: req.EventsSince, Message: req.Message,
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusCreated, cp)
}

func (s *Server) handleUserActivityUpsert(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	graphID := graphIDFromRequest(r)

	var req struct {
		ActivityType string `json:"activityType"`
	}
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	if err := s.Activities.Record(r.Context(), graphID, principal.UserID, req.ActivityType); err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	ua, err := s.Activities.Get(r.Context(), graphID, principal.UserID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, ua)
}
