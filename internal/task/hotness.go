package task

import (
	"context"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
)

const (
	hotnessWindow = 7 * 24 * time.Hour

	weightWithin4h  = 30
	weightWithin24h = 20
	weightWithin7d  = 10

	hotnessCap = 100
)

// Hotness is the computed activity score for one task.
type Hotness struct {
	Score           int                    `json:"score"`
	Level           string                 `json:"level"`
	Count24h        int                    `json:"count24h"`
	Count7d         int                    `json:"count7d"`
	LastActivityAt  time.Time              `json:"lastActivityAt,omitempty"`
	RecentActivity  []activityEvent        `json:"recentActivity"`
}

type activityEvent struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Hotness computes a task's activity score from its inbound RECENT_ACTIVITY
// events over the trailing 7 days.
func (s *Store) Hotness(ctx context.Context, taskID, graphID string) (*Hotness, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Event)-[:RECENT_ACTIVITY]->(t:Task {id: $taskId, graph_id: $graphId})
			RETURN e
			ORDER BY e.timestamp DESC`, map[string]interface{}{"taskId": taskID, "graphId": graphID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		events := make([]activityEvent, 0, len(records))
		for _, record := range records {
			props, ok := gg.NodeProps(record, "e")
			if !ok {
				continue
			}
			events = append(events, activityEvent{
				ID:        gg.StringProp(props, "id"),
				Category:  gg.StringProp(props, "category"),
				Timestamp: gg.TimeProp(props, "timestamp"),
			})
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	events := result.([]activityEvent)
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })

	score := 0
	count24h, count7d := 0, 0
	var lastActivityAt time.Time
	for _, ev := range events {
		if ev.Timestamp.After(now) {
			continue // future-dated events (clock skew) are ignored
		}
		age := now.Sub(ev.Timestamp)
		if age > hotnessWindow {
			continue
		}
		if lastActivityAt.IsZero() {
			lastActivityAt = ev.Timestamp
		}
		if age <= 24*time.Hour {
			count24h++
		}
		count7d++

		switch {
		case age <= 4*time.Hour:
			score += weightWithin4h
		case age <= 24*time.Hour:
			score += weightWithin24h
		default:
			score += weightWithin7d
		}
	}
	if score > hotnessCap {
		score = hotnessCap
	}

	recent := events
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return &Hotness{
		Score:          score,
		Level:          level(score),
		Count24h:       count24h,
		Count7d:        count7d,
		LastActivityAt: lastActivityAt,
		RecentActivity: recent,
	}, nil
}

func level(score int) string {
	switch {
	case score == 0:
		return "cold"
	case score < 30:
		return "warm"
	case score < 70:
		return "hot"
	default:
		return "blazing"
	}
}
