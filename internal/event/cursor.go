package event

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
)

const MaxBackwardLimit = 200

// ReadBackwardInput scopes a backward read from a cursor position.
type ReadBackwardInput struct {
	CursorID   string
	Limit      int
	Categories []string
	Branch     string
}

// ReadBackward returns events within the cursor's (project, branch) partition,
// up to the cursor's position, in reverse chronological order.
// cursorId may resolve to a SessionCursor node or, for legacy callers, directly
// to an Event id used as the anchor.
func (s *Store) ReadBackward(ctx context.Context, in ReadBackwardInput) ([]Event, error) {
	if in.CursorID == "" {
		return nil, errs.ErrMissingField("cursorId")
	}
	limit := in.Limit
	if limit <= 0 || limit > MaxBackwardLimit {
		limit = MaxBackwardLimit
	}

	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		anchor, err := anchorEvent(ctx, tx, in.CursorID)
		if err != nil {
			return nil, err
		}
		if anchor == nil {
			return nil, nil
		}

		res, err := tx.Run(ctx, `
			MATCH (anchor:Event {id: $anchorId})
			MATCH (e:Event {project_id: anchor.project_id, branch: anchor.branch})
			WHERE e.timestamp <= anchor.timestamp
			RETURN e
			ORDER BY e.timestamp DESC
			LIMIT $limit`, map[string]interface{}{
			"anchorId": anchor.ID,
			"limit":    int64(limit) * 3, // overfetch; category filter applied post-query per spec
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
	if result == nil {
		return nil, errs.ErrCursorNotFound(in.CursorID)
	}

	events := result.([]Event)
	filtered := filterByCategory(events, in.Categories)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// anchorEvent resolves cursorId either as a SessionCursor's current position
// or, for legacy callers, directly as an Event id.
func anchorEvent(ctx context.Context, tx neo4j.ManagedTransaction, cursorID string) (*Event, error) {
	res, err := tx.Run(ctx, `
		MATCH (c:SessionCursor {id: $cursorId})-[:POSITIONED_AT]->(e:Event)
		RETURN e`, map[string]interface{}{"cursorId": cursorID})
	if err != nil {
		return nil, err
	}
	if record, err := res.Single(ctx); err == nil {
		if props, ok := gg.NodeProps(record, "e"); ok {
			return fromProps(props), nil
		}
	}

	res, err = tx.Run(ctx, `MATCH (e:Event {id: $id}) RETURN e`, map[string]interface{}{"id": cursorID})
	if err != nil {
		return nil, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return nil, nil
	}
	props, ok := gg.NodeProps(record, "e")
	if !ok {
		return nil, nil
	}
	return fromProps(props), nil
}

func filterByCategory(events []Event, categories []string) []Event {
	if len(categories) == 0 {
		return events
	}
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if allowed[e.Category] {
			out = append(out, e)
		}
	}
	return out
}

// Reposition advances a SessionCursor to point at an event.
func (s *Store) Reposition(ctx context.Context, cursorID, eventID string) error {
	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MERGE (c:SessionCursor {id: $cursorId})
			ON CREATE SET c.createdAt = $now
			SET c.updatedAt = $now
			WITH c
			MATCH (e:Event {id: $eventId})
			OPTIONAL MATCH (c)-[old:POSITIONED_AT]->()
			DELETE old
			MERGE (c)-[:POSITIONED_AT]->(e)`, map[string]interface{}{
			"cursorId": cursorID, "eventId": eventID, "now": time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil, err
	})
	return err
}
