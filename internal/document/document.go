// Package document implements the Document node lookups the composite
// initial-load operation uses to resolve ADR/PRD/TASK references surfaced in
// recent event descriptions.
package document

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gg "github.com/ginkoai/ginko/internal/graph"
)

// MaxExpansion bounds how many related documents a single initial-load call
// may pull in via graph-hop expansion.
const MaxExpansion = 50

// Document mirrors the Document node.
type Document struct {
	ID      string `json:"id"`
	GraphID string `json:"graphId"`
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
}

// Store is the Document repository.
type Store struct {
	graph *gg.Manager
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// GetByIDs fetches every Document in graphID whose id is in ids. Unknown ids
// are silently skipped: a reference found in event text that never resolved
// to a real document is not an error, just absent from the result.
func (s *Store) GetByIDs(ctx context.Context, graphID string, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document {graphId: $graphId})
			WHERE d.id IN $ids
			RETURN d`, map[string]interface{}{"graphId": graphID, "ids": toAnySlice(ids)})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return collect(records), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Document), nil
}

// ExpandRelated walks up to depth hops along IMPLEMENTS|REFERENCES|DEPENDS_ON
// from the seed document ids, returning every newly discovered document up
// to MaxExpansion total.
func (s *Store) ExpandRelated(ctx context.Context, graphID string, seedIDs []string, depth int) ([]Document, error) {
	if len(seedIDs) == 0 || depth <= 0 {
		return nil, nil
	}
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (seed:Document {graphId: $graphId})
			WHERE seed.id IN $ids
			MATCH path = (seed)-[:IMPLEMENTS|REFERENCES|DEPENDS_ON*1..`+depthLiteral(depth)+`]-(related:Document {graphId: $graphId})
			WHERE NOT related.id IN $ids
			RETURN DISTINCT related AS d
			LIMIT $limit`, map[string]interface{}{
			"graphId": graphID, "ids": toAnySlice(seedIDs), "limit": int64(MaxExpansion),
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return collect(records), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Document), nil
}

func collect(records []*neo4j.Record) []Document {
	out := make([]Document, 0, len(records))
	for _, record := range records {
		props, ok := gg.NodeProps(record, "d")
		if !ok {
			continue
		}
		out = append(out, Document{
			ID:      gg.StringProp(props, "id"),
			GraphID: gg.StringProp(props, "graphId"),
			Type:    gg.StringProp(props, "type"),
			Title:   gg.StringProp(props, "title"),
		})
	}
	return out
}

func toAnySlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// depthLiteral renders a bounded hop count directly into the Cypher pattern;
// Neo4j variable-length patterns don't accept a parameter for the bound, so
// the caller-supplied depth is clamped and interpolated as a small integer
// literal, never as raw user text.
func depthLiteral(depth int) string {
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}
	digits := "12345"
	return string(digits[depth-1])
}
