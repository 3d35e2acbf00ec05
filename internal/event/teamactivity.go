package event

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
)

// MaxTeamActivityLimit bounds a single page of the team activity view.
const MaxTeamActivityLimit = 200

// ListGraphActivityInput scopes a paged, newest-first read of a graph
// namespace's events for the team activity view.
type ListGraphActivityInput struct {
	GraphID  string
	Limit    int
	Offset   int
	Since    time.Time
	MemberID string
	Category string
}

// ListGraphActivity returns events in a graph namespace ordered newest
// first, optionally bounded to events after Since and filtered to a single
// actor or category.
func (s *Store) ListGraphActivity(ctx context.Context, in ListGraphActivityInput) ([]Event, error) {
	limit := in.Limit
	if limit <= 0 || limit > MaxTeamActivityLimit {
		limit = MaxTeamActivityLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	since := ""
	if !in.Since.IsZero() {
		since = in.Since.UTC().Format(time.RFC3339Nano)
	}

	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Event {graph_id: $graphId})
			WHERE ($since = '' OR e.timestamp > $since)
				AND ($userId = '' OR e.user_id = $userId)
				AND ($category = '' OR e.category = $category)
			RETURN e
			ORDER BY e.timestamp DESC
			SKIP $offset
			LIMIT $limit`, map[string]interface{}{
			"graphId": in.GraphID, "since": since, "userId": in.MemberID,
			"category": in.Category, "offset": int64(offset), "limit": int64(limit),
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
	return result.([]Event), nil
}
