package httpapi

import (
	"net/http"
	"regexp"
	"time"

	"github.com/ginkoai/ginko/internal/document"
	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/event"
	"github.com/ginkoai/ginko/internal/httpresp"
)

var docRefPattern = regexp.MustCompile(`\b(?:ADR|PRD|TASK)-\d+\b`)

// avgCharsPerToken is a rough token-cost estimator for the composite
// initial-load response, sized the way a GPT/Claude-family tokenizer
// averages for English prose.
const avgCharsPerToken = 4

type initialLoadResponse struct {
	PrincipalEvents []event.Event       `json:"principalEvents"`
	TeamEvents      []event.Event       `json:"teamEvents,omitempty"`
	Documents       []document.Document `json:"documents"`
	EstimatedTokens int                 `json:"estimatedTokens"`
	TimingMS        int64               `json:"timingMs"`
}

// handleInitialLoad serves the composite snapshot a client needs to
// reconstruct working context in one round-trip.
func (s *Server) handleInitialLoad(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	graphID := graphIDFromRequest(r)
	userID := httpresp.QueryString(r, "userId", "")
	if userID == "" {
		httpresp.WriteError(w, r, errs.ErrMissingField("userId"))
		return
	}

	principalLimit := httpresp.QueryInt(r, "limit", 20)
	includeTeam := httpresp.QueryBool(r, "includeTeam", true)
	teamLimit := httpresp.QueryInt(r, "teamLimit", 10)
	documentDepth := httpresp.QueryInt(r, "documentDepth", 1)
	if documentDepth > 3 {
		documentDepth = 3
	}

	principalEvents, err := s.Events.LastNForUser(r.Context(), graphID, userID, principalLimit)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}

	var teamEvents []event.Event
	if includeTeam {
		teamEvents, err = s.Events.LastNTeam(r.Context(), graphID, teamLimit)
		if err != nil {
			httpresp.WriteError(w, r, err)
			return
		}
	}

	refs := map[string]bool{}
	for _, ev := range principalEvents {
		for _, id := range docRefPattern.FindAllString(ev.Description, -1) {
			refs[id] = true
		}
	}
	for _, ev := range teamEvents {
		for _, id := range docRefPattern.FindAllString(ev.Description, -1) {
			refs[id] = true
		}
	}
	seedIDs := make([]string, 0, len(refs))
	for id := range refs {
		seedIDs = append(seedIDs, id)
	}

	seedDocs, err := s.Documents.GetByIDs(r.Context(), graphID, seedIDs)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	relatedDocs, err := s.Documents.ExpandRelated(r.Context(), graphID, seedIDs, documentDepth)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	docs := append(seedDocs, relatedDocs...)

	resp := initialLoadResponse{
		PrincipalEvents: principalEvents,
		TeamEvents:      teamEvents,
		Documents:       docs,
		EstimatedTokens: estimateTokens(principalEvents, teamEvents, docs),
		TimingMS:        time.Since(start).Milliseconds(),
	}
	httpresp.WriteJSON(w, http.StatusOK, resp)
}

func estimateTokens(principal, team []event.Event, docs []document.Document) int {
	chars := 0
	for _, ev := range principal {
		chars += len(ev.Description)
	}
	for _, ev := range team {
		chars += len(ev.Description)
	}
	for _, d := range docs {
		chars += len(d.Title)
	}
	return chars / avgCharsPerToken
}
