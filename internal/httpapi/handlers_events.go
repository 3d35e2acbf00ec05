package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/event"
	"github.com/ginkoai/ginko/internal/httpresp"
)

func (s *Server) handleEventsBackward(w http.ResponseWriter, r *http.Request) {
	cursorID := httpresp.QueryString(r, "cursorId", "")
	_, limit := httpresp.Pagination(r, 50, event.MaxBackwardLimit)

	events, err := s.Events.ReadBackward(r.Context(), event.ReadBackwardInput{
		CursorID:   cursorID,
		Limit:      limit,
		Categories: httpresp.QueryCSV(r, "categories"),
		Branch:     httpresp.QueryString(r, "branch", ""),
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

type eventAppendRequest struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	OrganizationID string   `json:"organizationId"`
	ProjectID      string   `json:"projectId"`
	Branch         string   `json:"branch"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Files          []string `json:"files"`
	Impact         string   `json:"impact"`
	Pressure       string   `json:"pressure"`
	Tags           []string `json:"tags"`
	Shared         bool     `json:"shared"`
	CommitHash     string   `json:"commitHash"`
}

func (s *Server) handleEventAppend(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	var req eventAppendRequest
	if !httpresp.DecodeJSON(w, r, &req) {
		return
	}

	ev, err := s.Events.Append(r.Context(), event.AppendInput{
		ID: req.ID, UserID: req.UserID, OrganizationID: req.OrganizationID,
		ProjectID: req.ProjectID, GraphID: graphID, Branch: req.Branch,
		Category: req.Category, Description: req.Description, Files: req.Files,
		Impact: req.Impact, Pressure: req.Pressure, Tags: req.Tags,
		Shared: req.Shared, CommitHash: req.CommitHash,
	})
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.EventsAppendedTotal.WithLabelValues("ginko-api", ev.Category).Inc()
	}
	httpresp.WriteJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleEventsLongPoll(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)
	since := parseSince(r)
	maxWait := s.LongPollMaxWait
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}

	result, err := s.Events.LongPoll(r.Context(), event.StreamFilter{
		GraphID: graphID, Since: since,
		Categories: httpresp.QueryCSV(r, "categories"),
		AgentID:    httpresp.QueryString(r, "agentId", ""),
	}, maxWait)
	if err != nil {
		httpresp.WriteError(w, r, err)
		return
	}
	httpresp.WriteJSON(w, http.StatusOK, result)
}

func parseSince(r *http.Request) time.Time {
	raw := httpresp.QueryString(r, "since", "")
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return time.Time{}
}

// sseSink adapts an http.ResponseWriter into an event.FrameSink writing the
// text/event-stream wire format.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (sink *sseSink) Send(ctx context.Context, f event.Frame) error {
	data, err := json.Marshal(f.Data)
	if err != nil {
		return err
	}
	if f.ID != "" {
		if _, err := fmt.Fprintf(sink.w, "id: %s\n", f.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(sink.w, "event: %s\ndata: %s\n\n", f.Type, data); err != nil {
		return err
	}
	if sink.flusher != nil {
		sink.flusher.Flush()
	}
	return nil
}

func (s *Server) handleEventsSSE(w http.ResponseWriter, r *http.Request) {
	graphID := graphIDFromRequest(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpresp.WriteError(w, r, errs.ErrInternal(fmt.Errorf("streaming unsupported")))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	maxLifetime := s.SSEMaxLifetime
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, maxLifetime)
	defer cancel()

	if s.Metrics != nil {
		s.Metrics.SSEConnectionsOpen.Inc()
		defer s.Metrics.SSEConnectionsOpen.Dec()
	}

	heartbeat := s.SSEHeartbeat
	if heartbeat <= 0 {
		heartbeat = event.DefaultHeartbeatInterval
	}

	_ = s.Events.Stream(ctx, event.StreamFilter{
		GraphID:    graphID,
		Since:      parseSince(r),
		Categories: httpresp.QueryCSV(r, "categories"),
		AgentID:    httpresp.QueryString(r, "agentId", ""),
	}, heartbeat, &sseSink{w: w, flusher: flusher})
}
