// Package epic implements the Epic entity: canonical id normalization,
// conflict detection, and its status state machine.
package epic

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/statuschange"
)

const (
	StatusDraft      = "draft"
	StatusProposed   = "proposed"
	StatusCommitted  = "committed"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusPaused     = "paused"

	EntityType = "epic"
)

var canonicalPattern = regexp.MustCompile(`^EPIC-(\d+)$`)
var numberPattern = regexp.MustCompile(`\d+`)

// Canonicalize normalizes a proposed epic id to EPIC-### form.
func Canonicalize(id string) string {
	if canonicalPattern.MatchString(id) {
		return id
	}
	digits := numberPattern.FindString(id)
	if digits == "" {
		return id
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return id
	}
	return fmt.Sprintf("EPIC-%03d", n)
}

// Epic mirrors the Epic node.
type Epic struct {
	ID        string    `json:"id"`
	GraphID   string    `json:"graphId"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
	Content   string    `json:"content,omitempty"`
}

// CheckResult is the response body for POST /epic/check.
type CheckResult struct {
	Exists      bool      `json:"exists"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	Title       string    `json:"title,omitempty"`
	SuggestedID string    `json:"suggestedId,omitempty"`
}

// Store is the Epic repository.
type Store struct {
	graph     *gg.Manager
	statusChg *statuschange.Emitter
}

func NewStore(graph *gg.Manager, statusChg *statuschange.Emitter) *Store {
	return &Store{graph: graph, statusChg: statusChg}
}

// Check detects an id collision for a proposed epic.
func (s *Store) Check(ctx context.Context, graphID, proposedID string) (*CheckResult, error) {
	canonical := Canonicalize(proposedID)
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (e:Epic {id: $id, graphId: $graphId}) RETURN e`, map[string]interface{}{
			"id": canonical, "graphId": graphID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		props, ok := gg.NodeProps(record, "e")
		if !ok {
			return nil, nil
		}
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &CheckResult{Exists: false}, nil
	}
	props := result.(map[string]interface{})
	return &CheckResult{
		Exists:      true,
		CreatedBy:   gg.StringProp(props, "createdBy"),
		CreatedAt:   gg.TimeProp(props, "createdAt"),
		Title:       gg.StringProp(props, "title"),
		SuggestedID: nextAvailableID(canonical),
	}, nil
}

func nextAvailableID(id string) string {
	m := canonicalPattern.FindStringSubmatch(id)
	if len(m) != 2 {
		return id
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return id
	}
	return fmt.Sprintf("EPIC-%03d", n+1)
}

// Create inserts a new Epic node.
func (s *Store) Create(ctx context.Context, graphID, proposedID, title, createdBy, content string) (*Epic, error) {
	if graphID == "" {
		return nil, errs.ErrMissingField("graphId")
	}
	if title == "" {
		return nil, errs.ErrMissingField("title")
	}
	id := Canonicalize(proposedID)
	now := time.Now().UTC()

	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			CREATE (e:Epic {
				id: $id, graphId: $graphId, title: $title, createdBy: $createdBy,
				createdAt: $createdAt, status: $status, content: $content
			})`, map[string]interface{}{
			"id": id, "graphId": graphID, "title": title, "createdBy": createdBy,
			"createdAt": now.Format(time.RFC3339Nano), "status": StatusDraft, "content": content,
		})
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &Epic{ID: id, GraphID: graphID, Title: title, CreatedBy: createdBy, CreatedAt: now, Status: StatusDraft, Content: content}, nil
}

var validStatuses = map[string]bool{
	StatusDraft: true, StatusProposed: true, StatusCommitted: true,
	StatusInProgress: true, StatusComplete: true, StatusPaused: true,
}

// SetStatus transitions an epic's status and emits a status_change event.
func (s *Store) SetStatus(ctx context.Context, id, graphID, status, changedBy string) (*Epic, error) {
	if !validStatuses[status] {
		return nil, errs.ErrInvalidStatus(status)
	}
	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (e:Epic {id: $id, graphId: $graphId}) RETURN e.status AS status`, map[string]interface{}{
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
			MATCH (e:Epic {id: $id, graphId: $graphId})
			SET e.status = $status
			RETURN e`, map[string]interface{}{"id": id, "graphId": graphID, "status": status})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		props, ok := gg.NodeProps(record, "e")
		if !ok {
			return nil, nil
		}
		return map[string]interface{}{"epic": props, "previousStatus": previousStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.New(errs.Code("epic_not_found"), "epic not found", 404)
	}
	row := result.(map[string]interface{})
	updated := fromProps(row["epic"].(map[string]interface{}))
	previousStatus, _ := row["previousStatus"].(string)

	if s.statusChg != nil {
		_ = s.statusChg.Emit(ctx, statuschange.Input{
			EntityType: EntityType, EntityID: id, GraphID: graphID,
			OldStatus: previousStatus, NewStatus: status, ChangedBy: changedBy,
		})
	}
	return updated, nil
}

func fromProps(props map[string]interface{}) *Epic {
	return &Epic{
		ID:        gg.StringProp(props, "id"),
		GraphID:   gg.StringProp(props, "graphId"),
		Title:     gg.StringProp(props, "title"),
		CreatedBy: gg.StringProp(props, "createdBy"),
		CreatedAt: gg.TimeProp(props, "createdAt"),
		Status:    gg.StringProp(props, "status"),
		Content:   gg.StringProp(props, "content"),
	}
}
