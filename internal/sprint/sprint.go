// Package sprint implements the Sprint entity contained within an Epic,
// following the same status state machine pattern.
package sprint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/statuschange"
)

const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"

	EntityType = "sprint"
)

var validStatuses = map[string]bool{
	StatusPlanned: true, StatusActive: true, StatusComplete: true, StatusCancelled: true,
}

// Sprint mirrors the Sprint node.
type Sprint struct {
	ID      string `json:"id"`
	GraphID string `json:"graphId"`
	EpicID  string `json:"epicId"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}

// Store is the Sprint repository.
type Store struct {
	graph     *gg.Manager
	statusChg *statuschange.Emitter
}

func NewStore(graph *gg.Manager, statusChg *statuschange.Emitter) *Store {
	return &Store{graph: graph, statusChg: statusChg}
}

// Create inserts a Sprint contained in an Epic.
func (s *Store) Create(ctx context.Context, graphID, epicID, title string) (*Sprint, error) {
	if graphID == "" {
		return nil, errs.ErrMissingField("graphId")
	}
	if epicID == "" {
		return nil, errs.ErrMissingField("epicId")
	}
	id := uuid.NewString()

	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH (e:Epic {id: $epicId, graphId: $graphId})
			CREATE (s:Sprint {id: $id, graphId: $graphId, epicId: $epicId, title: $title, status: $status})
			MERGE (e)-[:HAS]->(s)`, map[string]interface{}{
			"epicId": epicID, "graphId": graphID, "id": id, "title": title, "status": StatusPlanned,
		})
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &Sprint{ID: id, GraphID: graphID, EpicID: epicID, Title: title, Status: StatusPlanned}, nil
}

// SetStatus transitions a sprint's status and emits a status_change event.
func (s *Store) SetStatus(ctx context.Context, id, graphID, status, changedBy string) (*Sprint, error) {
	if !validStatuses[status] {
		return nil, errs.ErrInvalidStatus(status)
	}
	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (sp:Sprint {id: $id, graphId: $graphId}) RETURN sp.status AS status`, map[string]interface{}{
			"id": id, "graphId": graphID,
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

		res, err = tx.Run(ctx, `
			MATCH (sp:Sprint {id: $id, graphId: $graphId})
			SET sp.status = $status
			RETURN sp`, map[string]interface{}{"id": id, "graphId": graphID, "status": status})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		props, ok := gg.NodeProps(record, "sp")
		if !ok {
			return nil, nil
		}
		return map[string]interface{}{"sprint": props, "previousStatus": previousStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.New(errs.Code("sprint_not_found"), "sprint not found", 404)
	}
	row := result.(map[string]interface{})
	updated := fromProps(row["sprint"].(map[string]interface{}))
	previousStatus, _ := row["previousStatus"].(string)

	if s.statusChg != nil {
		_ = s.statusChg.Emit(ctx, statuschange.Input{
			EntityType: EntityType, EntityID: id, GraphID: graphID,
			OldStatus: previousStatus, NewStatus: status, ChangedBy: changedBy,
		})
	}
	return updated, nil
}

func fromProps(props map[string]interface{}) *Sprint {
	return &Sprint{
		ID:      gg.StringProp(props, "id"),
		GraphID: gg.StringProp(props, "graphId"),
		EpicID:  gg.StringProp(props, "epicId"),
		Title:   gg.StringProp(props, "title"),
		Status:  gg.StringProp(props, "status"),
	}
}
