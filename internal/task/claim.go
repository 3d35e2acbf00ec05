package task

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
)

// Claim asserts exclusive ownership of a task by an agent. The claimed-state
// check and the edge creation are a single Cypher statement, so a concurrent
// Claim on the same task either sees the edge and fails the WHERE NOT guard
// or runs after this one commits; the two can never both succeed.
func (s *Store) Claim(ctx context.Context, taskID, graphID, agentID, organizationID string) (*Task, error) {
	now := time.Now().UTC()
	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (t:Task {id: $taskId, graph_id: $graphId}) RETURN t`, map[string]interface{}{
			"taskId": taskID, "graphId": graphID,
		})
		if err != nil {
			return nil, err
		}
		if _, err := res.Single(ctx); err != nil {
			return "missing", nil
		}

		res, err = tx.Run(ctx, `
			MATCH (t:Task {id: $taskId, graph_id: $graphId})
			WHERE NOT (t)<-[:CLAIMED_BY]-(:Agent)
			MERGE (a:Agent {id: $agentId, organization_id: $organizationId})
			SET a.status = 'busy', a.last_heartbeat_at = $now
			MERGE (a)-[:CLAIMED_BY]->(t)
			SET t.claimed_by_agent = $agentId
			RETURN t`, map[string]interface{}{
			"taskId": taskID, "graphId": graphID, "agentId": agentID,
			"organizationId": organizationID, "now": now.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return "already_claimed", nil
		}
		props, ok := record.Get("t")
		if !ok {
			return nil, nil
		}
		node, ok := props.(neo4j.Node)
		if !ok {
			return nil, nil
		}
		return node.Props, nil
	})
	if err != nil {
		return nil, err
	}
	switch v := result.(type) {
	case string:
		if v == "missing" {
			return nil, errs.ErrAgentOrTaskNotFound()
		}
		if v == "already_claimed" {
			return nil, errs.ErrAlreadyClaimed(taskID)
		}
	case map[string]interface{}:
		return fromProps(v), nil
	}
	return nil, errs.ErrAgentOrTaskNotFound()
}

// Release removes the claiming agent's edge, provided callerAgentID is the
// agent that holds it. It re-marks the task as available and
// clears the agent's busy state if it holds no other claims.
func (s *Store) Release(ctx context.Context, taskID, graphID, callerAgentID string) (*Task, error) {
	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (t:Task {id: $taskId, graph_id: $graphId})
			OPTIONAL MATCH (a:Agent)-[:CLAIMED_BY]->(t)
			RETURN t, a.id AS claimingAgentId`, map[string]interface{}{
			"taskId": taskID, "graphId": graphID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return "missing", nil
		}
		claimingAgentRaw, _ := record.Get("claimingAgentId")
		claimingAgentID, _ := claimingAgentRaw.(string)
		if claimingAgentID == "" {
			tNode, _ := record.Get("t")
			node, _ := tNode.(neo4j.Node)
			return node.Props, nil
		}
		if claimingAgentID != callerAgentID {
			return "forbidden", nil
		}

		res, err = tx.Run(ctx, `
			MATCH (a:Agent {id: $agentId})-[r:CLAIMED_BY]->(t:Task {id: $taskId, graph_id: $graphId})
			DELETE r
			SET t.claimed_by_agent = null
			WITH a, t
			OPTIONAL MATCH (a)-[:CLAIMED_BY]->(other:Task)
			WITH a, t, count(other) AS remaining
			SET a.status = CASE WHEN remaining = 0 THEN 'idle' ELSE a.status END
			RETURN t`, map[string]interface{}{
			"agentId": callerAgentID, "taskId": taskID, "graphId": graphID,
		})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		tNode, ok := record.Get("t")
		if !ok {
			return nil, nil
		}
		node, ok := tNode.(neo4j.Node)
		if !ok {
			return nil, nil
		}
		return node.Props, nil
	})
	if err != nil {
		return nil, err
	}
	switch v := result.(type) {
	case string:
		if v == "missing" {
			return nil, errs.ErrAgentOrTaskNotFound()
		}
		if v == "forbidden" {
			return nil, errs.ErrForbidden("caller does not hold the claim")
		}
	case map[string]interface{}:
		return fromProps(v), nil
	}
	return nil, errs.ErrAgentOrTaskNotFound()
}
