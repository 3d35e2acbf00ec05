// Package checkpoint implements the append-only Checkpoint log that records
// an agent's progress against a task.
package checkpoint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
)

// Checkpoint mirrors the Checkpoint node.
type Checkpoint struct {
	ID            string    `json:"id"`
	GraphID       string    `json:"graphId"`
	TaskID        string    `json:"taskId"`
	AgentID       string    `json:"agentId"`
	GitCommit     string    `json:"gitCommit,omitempty"`
	FilesModified []string  `json:"filesModified,omitempty"`
	EventsSince   int64     `json:"eventsSince"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store is the Checkpoint repository.
type Store struct {
	graph *gg.Manager
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// CreateInput is the payload for appending a checkpoint.
type CreateInput struct {
	GraphID       string
	TaskID        string
	AgentID       string
	GitCommit     string
	FilesModified []string
	EventsSince   int64
	Message       string
}

// Create appends a new Checkpoint linked to its task and agent.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Checkpoint, error) {
	if in.GraphID == "" {
		return nil, errs.ErrMissingField("graphId")
	}
	if in.TaskID == "" {
		return nil, errs.ErrMissingField("taskId")
	}
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH (t:Task {id: $taskId, graph_id: $graphId})
			CREATE (c:Checkpoint {
				id: $id, graphId: $graphId, taskId: $taskId, agentId: $agentId,
				gitCommit: $gitCommit, filesModified: $filesModified, eventsSince: $eventsSince,
				message: $message, createdAt: $createdAt
			})
			MERGE (t)-[:HAS_CHECKPOINT]->(c)`, map[string]interface{}{
			"taskId": in.TaskID, "graphId": in.GraphID, "id": id, "agentId": in.AgentID,
			"gitCommit": in.GitCommit, "filesModified": toAnySlice(in.FilesModified),
			"eventsSince": in.EventsSince, "message": in.Message, "createdAt": now.Format(time.RFC3339Nano),
		})
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &Checkpoint{
		ID: id, GraphID: in.GraphID, TaskID: in.TaskID, AgentID: in.AgentID,
		GitCommit: in.GitCommit, FilesModified: in.FilesModified, EventsSince: in.EventsSince,
		Message: in.Message, CreatedAt: now,
	}, nil
}

// ListForTask returns a task's checkpoints, newest first.
func (s *Store) ListForTask(ctx context.Context, taskID, graphID string) ([]Checkpoint, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (t:Task {id: $taskId, graph_id: $graphId})-[:HAS_CHECKPOINT]->(c:Checkpoint)
			RETURN c
			ORDER BY c.createdAt DESC`, map[string]interface{}{"taskId": taskID, "graphId": graphID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Checkpoint, 0, len(records))
		for _, record := range records {
			props, ok := gg.NodeProps(record, "c")
			if !ok {
				continue
			}
			out = append(out, Checkpoint{
				ID:            gg.StringProp(props, "id"),
				GraphID:       gg.StringProp(props, "graphId"),
				TaskID:        gg.StringProp(props, "taskId"),
				AgentID:       gg.StringProp(props, "agentId"),
				GitCommit:     gg.StringProp(props, "gitCommit"),
				FilesModified: gg.StringSliceProp(props, "filesModified"),
				EventsSince:   gg.Int64Prop(props, "eventsSince"),
				Message:       gg.StringProp(props, "message"),
				CreatedAt:     gg.TimeProp(props, "createdAt"),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Checkpoint), nil
}

func toAnySlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
