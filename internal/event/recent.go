package event

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
)

// LastNForUser returns a principal's most recent events in a graph
// namespace, newest first, for the composite initial-load response.
func (s *Store) LastNForUser(ctx context.Context, graphID, userID string, limit int) ([]Event, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Event {graph_id: $graphId, user_id: $userId})
			RETURN e
			ORDER BY e.timestamp DESC
			LIMIT $limit`, map[string]interface{}{"graphId": graphID, "userId": userID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return collectEvents(records), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Event), nil
}

// teamCategories are the event categories eligible for the "team" slice of
// the composite initial-load response.
var teamCategories = map[string]bool{
	CategoryDecision:    true,
	CategoryAchievement: true,
	CategoryGit:         true,
}

// LastNTeam returns the graph namespace's most recent shared/high-impact
// team events, newest first.
func (s *Store) LastNTeam(ctx context.Context, graphID string, limit int) ([]Event, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Event {graph_id: $graphId})
			WHERE (e.shared = true OR e.impact = 'high')
			RETURN e
			ORDER BY e.timestamp DESC
			LIMIT $limit`, map[string]interface{}{"graphId": graphID, "limit": int64(limit) * 3})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return collectEvents(records), nil
	})
	if err != nil {
		return nil, err
	}
	events := result.([]Event)
	out := make([]Event, 0, limit)
	for _, ev := range events {
		if !teamCategories[ev.Category] {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func collectEvents(records []*neo4j.Record) []Event {
	out := make([]Event, 0, len(records))
	for _, record := range records {
		props, ok := gg.NodeProps(record, "e")
		if !ok {
			continue
		}
		out = append(out, *fromProps(props))
	}
	return out
}
