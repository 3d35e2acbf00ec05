package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/event"
	"github.com/ginkoai/ginko/internal/httpresp"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

type teamInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleTeamInvite(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		httpresp.WriteError(w, r, errs.ErrAuthRequired())
		return
	}
	teamID := chi.URLParam(r, "teamId")

	var req teamInviteRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	inv, err := s.Team.Invite(r.Context(), teamID, req.Email, req.Role, principal.UserID, defaultInvitationTTL)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleTeamJoinPreview(w http.ResponseWriter, r *http.Request) {
	code := httpresp.QueryString(r, "code", "")
	if code == "" {
		httpresp.WriteError(w, r, errs.ErrMissingField("code"))
		return
	}
	inv, err := s.Team.Preview(r.Context(), code)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, inv)
}

type teamJoinAcceptRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleTeamJoinAccept(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		httpresp.WriteError(w, r, errs.ErrAuthRequired())
		return
	}
	var req teamJoinAcceptRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	member, err := s.Team.Accept(r.Context(), req.Code, principal.UserID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, member)
}

func (s *Server) handleTeamMembersList(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")
	members, err := s.Team.ListMembers(r.Context(), teamID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// handleTeamActivity serves the paged team activity view: the events logged
// against the team's graph namespace, newest first.
func (s *Server) handleTeamActivity(w http.ResponseWriter, r *http.Request) {
	teamID := httpresp.QueryString(r, "team_id", "")
	if teamID == "" {
		httpresp.WriteError(w, r, errs.ErrMissingField("team_id"))
		return
	}
	graphID, err := s.Team.GraphID(r.Context(), teamID)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}

	offset, limit := httpresp.Pagination(r, 50, event.MaxTeamActivityLimit)
	var since time.Time
	if raw := httpresp.QueryString(r, "since", ""); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			since = parsed
		}
	}

	events, err := s.Events.ListGraphActivity(r.Context(), event.ListGraphActivityInput{
		GraphID:  graphID,
		Limit:    limit,
		Offset:   offset,
		Since:    since,
		MemberID: httpresp.QueryString(r, "member_id", ""),
		Category: httpresp.QueryString(r, "category", ""),
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events, "offset": offset, "limit": limit})
}

func (s *Server) handleTeamMemberRemove(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		httpresp.WriteError(w, r, errs.ErrAuthRequired())
		return
	}
	teamID := chi.URLParam(r, "teamId")
	userID := chi.URLParam(r, "userId")

	if err := s.Team.Remove(r.Context(), teamID, userID, principal.UserID); err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
