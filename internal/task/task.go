// Package task implements the Task status state machine, exclusive
// claim/release coordination, and activity hotness scoring.
package task

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/statuschange"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusComplete   = "complete"

	EntityType = "task"
)

// Task mirrors the Task node.
type Task struct {
	ID              string    `json:"id"`
	GraphID         string    `json:"graph_id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	StatusUpdatedBy string    `json:"status_updated_by,omitempty"`
	BlockedReason   string    `json:"blocked_reason,omitempty"`
	Assignee        string    `json:"assignee,omitempty"`
	ClaimedByAgent  string    `json:"claimed_by_agent,omitempty"`
}

var validStatuses = map[string]bool{
	StatusNotStarted: true, StatusInProgress: true, StatusBlocked: true, StatusComplete: true,
}

// statusToActivity maps a new status to the UserActivity type it produces.
var statusToActivity = map[string]string{
	StatusInProgress: "task_start",
	StatusComplete:   "task_complete",
	StatusBlocked:    "task_block",
}

// Store is the Task entity repository.
type Store struct {
	graph      *gg.Manager
	statusChg  *statuschange.Emitter
	activities ActivityRecorder
}

// ActivityRecorder records the UserActivity side effect of a status change;
// implemented by the activity package to avoid an import cycle.
type ActivityRecorder interface {
	RecordStatusActivity(ctx context.Context, graphID, userID, activityType string) error
}

func NewStore(graph *gg.Manager, statusChg *statuschange.Emitter, activities ActivityRecorder) *Store {
	return &Store{graph: graph, statusChg: statusChg, activities: activities}
}

// Get fetches a task by (id, graph_id).
func (s *Store) Get(ctx context.Context, id, graphID string) (*Task, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (t:Task {id: $id, graph_id: $graphId}) RETURN t`, map[string]interface{}{"id": id, "graphId": graphID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		props, ok := gg.NodeProps(record, "t")
		if !ok {
			return nil, nil
		}
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.ErrTaskNotFound(id)
	}
	return fromProps(result.(map[string]interface{})), nil
}

// SetStatusInput is the PATCH /task/:id/status payload.
type SetStatusInput struct {
	ID            string
	GraphID       string
	Status        string
	BlockedReason string
	ChangedBy     string
}

// SetStatus runs the five-step status write transaction.
func (s *Store) SetStatus(ctx context.Context, in SetStatusInput) (*Task, error) {
	if in.GraphID == "" {
		return nil, errs.ErrMissingField("graphId")
	}
	if !validStatuses[in.Status] {
		return nil, errs.ErrInvalidStatus(in.Status)
	}
	if in.Status == StatusBlocked && in.BlockedReason == "" {
		return nil, errs.ErrMissingBlockedReason()
	}

	now := time.Now().UTC()
	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (t:Task {id: $id, graph_id: $graphId}) RETURN t.status AS status`, map[string]interface{}{
			"id": in.ID, "graphId": in.GraphID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		prevRaw, _ := record.Get("status")
		previousStatus, _ := prevRaw.(string)

		blockedReason := interface{}(nil)
		if in.Status == StatusBlocked {
			blockedReason = in.BlockedReason
		}

		res, err = tx.Run(ctx, `
			MATCH (t:Task {id: $id, graph_id: $graphId})
			SET t.status = $status, t.status_updated_at = $now, t.status_updated_by = $changedBy,
				t.blocked_reason = $blockedReason, t.updated_at = $now
			RETURN t`, map[string]interface{}{
			"id": in.ID, "graphId": in.GraphID, "status": in.Status, "now": now.Format(time.RFC3339Nano),
			"changedBy": in.ChangedBy, "blockedReason": blockedReason,
		})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		props, ok := gg.NodeProps(record, "t")
		if !ok {
			return nil, nil
		}
		return map[string]interface{}{"task": props, "previousStatus": previousStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.ErrTaskNotFound(in.ID)
	}

	row := result.(map[string]interface{})
	updated := fromProps(row["task"].(map[string]interface{}))
	previousStatus, _ := row["previousStatus"].(string)

	if s.statusChg != nil {
		_ = s.statusChg.Emit(ctx, statuschange.Input{
			EntityType: EntityType, EntityID: in.ID, GraphID: in.GraphID,
			OldStatus: previousStatus, NewStatus: in.Status, ChangedBy: in.ChangedBy,
			Reason: in.BlockedReason,
		})
	}
	if s.activities != nil {
		if activityType, ok := statusToActivity[in.Status]; ok {
			_ = s.activities.RecordStatusActivity(ctx, in.GraphID, in.ChangedBy, activityType)
		}
	}
	return updated, nil
}

func fromProps(props map[string]interface{}) *Task {
	return &Task{
		ID:              gg.StringProp(props, "id"),
		GraphID:         gg.StringProp(props, "graph_id"),
		Title:           gg.StringProp(props, "title"),
		Status:          gg.StringProp(props, "status"),
		StatusUpdatedAt: gg.TimeProp(props, "status_updated_at"),
		StatusUpdatedBy: gg.StringProp(props, "status_updated_by"),
		BlockedReason:   gg.StringProp(props, "blocked_reason"),
		Assignee:        gg.StringProp(props, "assignee"),
		ClaimedByAgent:  gg.StringProp(props, "claimed_by_agent"),
	}
}
