// Package event implements the Event Log Core: append-only event nodes
// linked into a total order per (project_id, branch) partition, with
// idempotent appends and the auxiliary edges other modules hang activity off
// of.
package event

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/streambus"
)

const (
	CategoryFix          = "fix"
	CategoryFeature      = "feature"
	CategoryDecision     = "decision"
	CategoryInsight      = "insight"
	CategoryGit          = "git"
	CategoryAchievement  = "achievement"
	CategoryStatusChange = "status_change"

	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Event is the immutable unit of the log.
type Event struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	ProjectID      string    `json:"project_id"`
	GraphID        string    `json:"graph_id"`
	Branch         string    `json:"branch,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	Files          []string  `json:"files,omitempty"`
	Impact         string    `json:"impact,omitempty"`
	Pressure       string    `json:"pressure,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Shared         bool      `json:"shared"`
	CommitHash     string    `json:"commit_hash,omitempty"`
}

// AppendInput is the caller-supplied payload for Append. ID is optional; when
// absent one is generated, and when present it is the idempotency key.
type AppendInput struct {
	ID             string
	UserID         string
	OrganizationID string
	ProjectID      string
	GraphID        string
	Branch         string
	Category       string
	Description    string
	Files          []string
	Impact         string
	Pressure       string
	Tags           []string
	Shared         bool
	CommitHash     string
}

var taskRefPattern = regexp.MustCompile(`TASK-\d+`)

// Store is the Event Log Core, backed by the property graph.
type Store struct {
	graph *gg.Manager
	bus   *streambus.Bus
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// WithBus attaches a fan-out bus so appends are published to live subscribers.
func (s *Store) WithBus(bus *streambus.Bus) *Store {
	s.bus = bus
	return s
}

// Append creates an Event node and links it to the tail of its
// (project_id, branch) partition. Re-posting the same caller-supplied id is
// a no-op: the MERGE below matches the existing node and skips relinking.
func (s *Store) Append(ctx context.Context, in AppendInput) (*Event, error) {
	if in.ProjectID == "" {
		return nil, errs.ErrMissingField("project_id")
	}
	if in.GraphID == "" {
		return nil, errs.ErrMissingField("graph_id")
	}
	if in.Category == "" {
		return nil, errs.ErrMissingField("category")
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	result, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MERGE (e:Event {id: $id})
			ON CREATE SET
				e.user_id = $userId, e.organization_id = $organizationId,
				e.project_id = $projectId, e.graph_id = $graphId, e.branch = $branch,
				e.timestamp = $timestamp, e.category = $category, e.description = $description,
				e.files = $files, e.impact = $impact, e.pressure = $pressure, e.tags = $tags,
				e.shared = $shared, e.commit_hash = $commitHash, e.created = true
			WITH e
			OPTIONAL MATCH (tail:Event {project_id: $projectId, branch: $branch})
				WHERE tail.id <> e.id AND NOT (tail)-[:NEXT]->()
			FOREACH (_ IN CASE WHEN e.created = true AND tail IS NOT NULL THEN [1] ELSE [] END |
				MERGE (tail)-[:NEXT]->(e)
			)
			REMOVE e.created
			RETURN e`, map[string]interface{}{
			"id": id, "userId": in.UserID, "organizationId": in.OrganizationID,
			"projectId": in.ProjectID, "graphId": in.GraphID, "branch": in.Branch,
			"timestamp": now.Format(time.RFC3339Nano), "category": in.Category,
			"description": in.Description, "files": toAnySlice(in.Files), "impact": in.Impact,
			"pressure": in.Pressure, "tags": toAnySlice(in.Tags), "shared": in.Shared,
			"commitHash": in.CommitHash,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
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
		return nil, errs.ErrInternal(nil)
	}
	ev := fromProps(result.(map[string]interface{}))

	if err := s.linkRecentActivity(ctx, ev); err != nil {
		// best-effort: activity linking never fails the append
		_ = err
	}
	if s.bus != nil {
		_ = s.bus.Publish(ctx, ev.GraphID, ev)
	}
	return ev, nil
}

// linkRecentActivity creates (Event)-[:RECENT_ACTIVITY]->(Task) edges for
// every TASK-### reference found in the event description.
func (s *Store) linkRecentActivity(ctx context.Context, ev *Event) error {
	taskIDs := taskRefPattern.FindAllString(ev.Description, -1)
	if len(taskIDs) == 0 {
		return nil
	}
	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, taskID := range taskIDs {
			_, err := tx.Run(ctx, `
				MATCH (e:Event {id: $eventId})
				MATCH (t:Task {id: $taskId, graph_id: $graphId})
				MERGE (e)-[:RECENT_ACTIVITY]->(t)`, map[string]interface{}{
				"eventId": ev.ID, "taskId": taskID, "graphId": ev.GraphID,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func fromProps(props map[string]interface{}) *Event {
	return &Event{
		ID:             gg.StringProp(props, "id"),
		UserID:         gg.StringProp(props, "user_id"),
		OrganizationID: gg.StringProp(props, "organization_id"),
		ProjectID:      gg.StringProp(props, "project_id"),
		GraphID:        gg.StringProp(props, "graph_id"),
		Branch:         gg.StringProp(props, "branch"),
		Timestamp:      gg.TimeProp(props, "timestamp"),
		Category:       gg.StringProp(props, "category"),
		Description:    gg.StringProp(props, "description"),
		Files:          gg.StringSliceProp(props, "files"),
		Impact:         gg.StringProp(props, "impact"),
		Pressure:       gg.StringProp(props, "pressure"),
		Tags:           gg.StringSliceProp(props, "tags"),
		Shared:         gg.BoolProp(props, "shared"),
		CommitHash:     gg.StringProp(props, "commit_hash"),
	}
}

func toAnySlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
