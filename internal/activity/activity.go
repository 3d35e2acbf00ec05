// Package activity implements the UserActivity upsert:
// one row per (graphId, userId), tracking the caller's last action for
// presence and engagement signals.
package activity

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
)

const (
	TypeSessionStart = "session_start"
	TypeTaskStart    = "task_start"
	TypeTaskComplete = "task_complete"
	TypeTaskBlock    = "task_block"
	TypeEventLogged  = "event_logged"
)

var validTypes = map[string]bool{
	TypeSessionStart: true, TypeTaskStart: true, TypeTaskComplete: true,
	TypeTaskBlock: true, TypeEventLogged: true,
}

// UserActivity mirrors the UserActivity node.
type UserActivity struct {
	GraphID          string    `json:"graphId"`
	UserID           string    `json:"userId"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	LastActivityType string    `json:"lastActivityType"`
	SessionCount     int64     `json:"sessionCount"`
}

// Store is the UserActivity repository.
type Store struct {
	graph *gg.Manager
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// Record upserts the (graphId, userId) activity row.
func (s *Store) Record(ctx context.Context, graphID, userID, activityType string) error {
	if !validTypes[activityType] {
		return errs.ErrInvalidActivityType(activityType)
	}
	now := time.Now().UTC()
	sessionIncrement := int64(0)
	if activityType == TypeSessionStart {
		sessionIncrement = 1
	}

	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MERGE (u:UserActivity {graphId: $graphId, userId: $userId})
			ON CREATE SET u.sessionCount = 0
			SET u.lastActivityAt = $now, u.lastActivityType = $activityType,
				u.sessionCount = u.sessionCount + $sessionIncrement`, map[string]interface{}{
			"graphId": graphID, "userId": userID, "now": now.Format(time.RFC3339Nano),
			"activityType": activityType, "sessionIncrement": sessionIncrement,
		})
		return nil, err
	})
	return err
}

// RecordStatusActivity implements task.ActivityRecorder.
func (s *Store) RecordStatusActivity(ctx context.Context, graphID, userID, activityType string) error {
	return s.Record(ctx, graphID, userID, activityType)
}

// Get fetches the activity row for (graphId, userId).
func (s *Store) Get(ctx context.Context, graphID, userID string) (*UserActivity, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (u:UserActivity {graphId: $graphId, userId: $userId}) RETURN u`, map[string]interface{}{
			"graphId": graphID, "userId": userID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		props, ok := gg.NodeProps(record, "u")
		if !ok {
			return nil, nil
		}
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	props := result.(map[string]interface{})
	return &UserActivity{
		GraphID:          graphID,
		UserID:           userID,
		LastActivityAt:   gg.TimeProp(props, "lastActivityAt"),
		LastActivityType: gg.StringProp(props, "lastActivityType"),
		SessionCount:     gg.Int64Prop(props, "sessionCount"),
	}, nil
}
