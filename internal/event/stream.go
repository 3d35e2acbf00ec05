package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
)

const (
	DefaultHeartbeatInterval = 15 * time.Second
	MaxHeartbeatInterval     = 30 * time.Second
)

// StreamFilter scopes a stream or long-poll to one graph namespace.
type StreamFilter struct {
	GraphID    string
	Since      time.Time
	Categories []string
	AgentID    string
}

// sinceEvents returns events in the graph namespace strictly after since, in
// chronological order, honoring the category/agent filters.
func (s *Store) sinceEvents(ctx context.Context, f StreamFilter) ([]Event, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Event {graph_id: $graphId})
			WHERE e.timestamp > $since
			RETURN e
			ORDER BY e.timestamp ASC
			LIMIT 500`, map[string]interface{}{
			"graphId": f.GraphID,
			"since":   f.Since.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		events := make([]Event, 0, len(records))
		for _, record := range records {
			props, ok := gg.NodeProps(record, "e")
			if !ok {
				continue
			}
			events = append(events, *fromProps(props))
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	events := filterByCategory(result.([]Event), f.Categories)
	if f.AgentID == "" {
		return events, nil
	}
	out := events[:0]
	for _, e := range events {
		if e.UserID == f.AgentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// LongPollResult is the JSON body for GET /events/stream.
type LongPollResult struct {
	Events      []Event `json:"events"`
	LastEventID string  `json:"lastEventId"`
}

const longPollQuantum = 2 * time.Second

// LongPoll blocks until a matching event appears, maxWait elapses, or ctx is
// cancelled, whichever comes first.
func (s *Store) LongPoll(ctx context.Context, f StreamFilter, maxWait time.Duration) (LongPollResult, error) {
	deadline := time.Now().Add(maxWait)
	lastEventID := ""

	for {
		events, err := s.sinceEvents(ctx, f)
		if err != nil {
			return LongPollResult{}, err
		}
		if len(events) > 0 {
			lastEventID = events[len(events)-1].ID
			return LongPollResult{Events: events, LastEventID: lastEventID}, nil
		}
		if time.Now().After(deadline) {
			return LongPollResult{Events: nil, LastEventID: lastEventID}, nil
		}

		select {
		case <-ctx.Done():
			return LongPollResult{Events: nil, LastEventID: lastEventID}, ctx.Err()
		case <-time.After(longPollQuantum):
		}
	}
}

// Frame is one SSE message: its Type is the SSE `event:` field.
type Frame struct {
	Type string
	ID   string
	Data interface{}
}

// FrameSink receives frames produced by Stream; implemented by the HTTP
// handler writing the actual SSE wire format.
type FrameSink interface {
	Send(ctx context.Context, f Frame) error
}

// Stream runs until ctx is cancelled (client disconnect), emitting a
// `connected` frame, then `event` frames for every new append, interleaved
// with `heartbeat` frames at heartbeatInterval. The poll observes ctx
// cancellation within one quantum, satisfying the no-delivery-after-
// disconnect requirement.
func (s *Store) Stream(ctx context.Context, f StreamFilter, heartbeatInterval time.Duration, sink FrameSink) error {
	if heartbeatInterval <= 0 || heartbeatInterval > MaxHeartbeatInterval {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	if err := sink.Send(ctx, Frame{Type: "connected", Data: map[string]interface{}{
		"graphId": f.GraphID, "connectedAt": time.Now().UTC().Format(time.RFC3339Nano),
	}}); err != nil {
		return err
	}

	if s.bus != nil {
		return s.streamFromBus(ctx, f, heartbeatInterval, sink)
	}
	return s.streamByPolling(ctx, f, heartbeatInterval, sink)
}

func (s *Store) streamByPolling(ctx context.Context, f StreamFilter, heartbeatInterval time.Duration, sink FrameSink) error {
	cursor := f.Since
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	poll := time.NewTicker(longPollQuantum)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sink.Send(ctx, Frame{Type: "heartbeat", Data: map[string]interface{}{
				"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			}}); err != nil {
				return err
			}
		case <-poll.C:
			events, err := s.sinceEvents(ctx, StreamFilter{GraphID: f.GraphID, Since: cursor, Categories: f.Categories, AgentID: f.AgentID})
			if err != nil {
				if sendErr := sink.Send(ctx, Frame{Type: "error", Data: map[string]interface{}{"message": err.Error()}}); sendErr != nil {
					return sendErr
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(5 * time.Second):
				}
				continue
			}
			for _, ev := range events {
				if err := sink.Send(ctx, Frame{Type: "event", ID: ev.ID, Data: ev}); err != nil {
					return err
				}
				cursor = ev.Timestamp
			}
		}
	}
}

func (s *Store) streamFromBus(ctx context.Context, f StreamFilter, heartbeatInterval time.Duration, sink FrameSink) error {
	sub := s.bus.Subscribe(ctx, f.GraphID)
	defer sub.Close()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sink.Send(ctx, Frame{Type: "heartbeat", Data: map[string]interface{}{
				"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			}}); err != nil {
				return err
			}
		default:
		}

		payload, ok := sub.Next(ctx)
		if !ok {
			return nil
		}
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}
		if !matchesFilter(ev, f) {
			continue
		}
		if err := sink.Send(ctx, Frame{Type: "event", ID: ev.ID, Data: ev}); err != nil {
			return err
		}
	}
}

func matchesFilter(ev Event, f StreamFilter) bool {
	if f.AgentID != "" && ev.UserID != f.AgentID {
		return false
	}
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if ev.Category == c {
			return true
		}
	}
	return false
}
