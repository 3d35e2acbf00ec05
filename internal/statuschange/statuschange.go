// Package statuschange implements the shared status-change event emission
// used by task, sprint, and epic transitions.
package statuschange

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/event"
	gg "github.com/ginkoai/ginko/internal/graph"
)

// Input describes one entity transition.
type Input struct {
	EntityType string
	EntityID   string
	GraphID    string
	OldStatus  string
	NewStatus  string
	ChangedBy  string
	Reason     string
}

// Emitter links a status_change Event to its entity via :HAS_EVENT.
type Emitter struct {
	graph  *gg.Manager
	events *event.Store
}

func NewEmitter(graph *gg.Manager, events *event.Store) *Emitter {
	return &Emitter{graph: graph, events: events}
}

// Emit creates the status_change event and links it, unless old == new
// (idempotent on repeated identical transitions). Emission failures are logged by the caller
// and never roll back the originating transition.
func (e *Emitter) Emit(ctx context.Context, in Input) error {
	if in.OldStatus == in.NewStatus {
		return nil
	}

	ev, err := e.events.Append(ctx, event.AppendInput{
		UserID:      in.ChangedBy,
		ProjectID:   in.GraphID,
		GraphID:     in.GraphID,
		Category:    event.CategoryStatusChange,
		Description: describe(in),
		Impact:      event.ImpactMedium,
	})
	if err != nil {
		return err
	}

	_, err = e.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH (entity {id: $entityId})
			WHERE entity.graph_id = $graphId OR entity.graphId = $graphId
			MATCH (e:Event {id: $eventId})
			SET e.entity_type = $entityType, e.old_status = $oldStatus,
				e.new_status = $newStatus, e.reason = $reason
			MERGE (entity)-[:HAS_EVENT]->(e)`, map[string]interface{}{
			"entityId": in.EntityID, "graphId": in.GraphID, "eventId": ev.ID,
			"entityType": in.EntityType, "oldStatus": in.OldStatus,
			"newStatus": in.NewStatus, "reason": in.Reason,
		})
		return nil, err
	})
	return err
}

func describe(in Input) string {
	return in.EntityType + " " + in.EntityID + " " + in.OldStatus + " -> " + in.NewStatus + " at " + time.Now().UTC().Format(time.RFC3339)
}
