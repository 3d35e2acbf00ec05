// Package agent implements the Agent entity and the background reaper that
// releases claims held by agents whose heartbeat has gone stale.
package agent

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/logging"
)

const (
	StatusIdle = "idle"
	StatusBusy = "busy"
)

// Agent mirrors the Agent node.
type Agent struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	Status          string    `json:"status"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

// StaleClaim identifies one claim a reaper sweep found expired.
type StaleClaim struct {
	AgentID string
	TaskID  string
	GraphID string
}

// Store is the Agent repository.
type Store struct {
	graph *gg.Manager
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// Heartbeat updates an agent's last-seen timestamp.
func (s *Store) Heartbeat(ctx context.Context, agentID string) error {
	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH (a:Agent {id: $agentId})
			SET a.last_heartbeat_at = $now`, map[string]interface{}{
			"agentId": agentID, "now": time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil, err
	})
	return err
}

// FindStaleClaims returns every claim held by an agent whose heartbeat age
// exceeds grace.
func (s *Store) FindStaleClaims(ctx context.Context, grace time.Duration) ([]StaleClaim, error) {
	threshold := time.Now().UTC().Add(-grace).Format(time.RFC3339Nano)
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:Agent)-[:CLAIMED_BY]->(t:Task)
			WHERE a.last_heartbeat_at < $threshold
			RETURN a.id AS agentId, t.id AS taskId, t.graph_id AS graphId`, map[string]interface{}{
			"threshold": threshold,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		claims := make([]StaleClaim, 0, len(records))
		for _, record := range records {
			agentID, _ := record.Get("agentId")
			taskID, _ := record.Get("taskId")
			graphID, _ := record.Get("graphId")
			a, _ := agentID.(string)
			t, _ := taskID.(string)
			g, _ := graphID.(string)
			claims = append(claims, StaleClaim{AgentID: a, TaskID: t, GraphID: g})
		}
		return claims, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]StaleClaim), nil
}

// Reaper sweeps for stale claims and releases them on a fixed schedule.
type Reaper struct {
	agents *Store
	grace  time.Duration
	log    *logging.Logger
	releaseFn func(ctx context.Context, taskID, graphID, agentID string) error
}

// NewReaper builds a reaper. releaseFn is bound to the concrete task.Store's
// Release method by the composition root, keeping this package free of an
// import cycle with task.
func NewReaper(agents *Store, grace time.Duration, log *logging.Logger, releaseFn func(ctx context.Context, taskID, graphID, agentID string) error) *Reaper {
	return &Reaper{agents: agents, grace: grace, log: log, releaseFn: releaseFn}
}

// Sweep runs one reclamation pass.
func (r *Reaper) Sweep(ctx context.Context) {
	claims, err := r.agents.FindStaleClaims(ctx, r.grace)
	if err != nil {
		r.log.WithError(err).WithFields(map[string]interface{}{"component": "stale_agent_reaper"}).Error("stale claim scan failed")
		return
	}
	for _, c := range claims {
		if err := r.releaseFn(ctx, c.TaskID, c.GraphID, c.AgentID); err != nil {
			r.log.WithError(err).WithFields(map[string]interface{}{
				"component": "stale_agent_reaper", "agentId": c.AgentID, "taskId": c.TaskID,
			}).Warn("failed to release stale claim")
			continue
		}
		r.log.WithFields(map[string]interface{}{
			"component": "stale_agent_reaper", "agentId": c.AgentID, "taskId": c.TaskID,
		}).Info("released stale claim")
	}
}
