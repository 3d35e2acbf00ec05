// Package graphns implements the Graph namespace entity: creation of new
// tenant namespaces and the ownership/listing queries the Access Gate and
// the `/user/graph` endpoint depend on.
package graphns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/identity"
)

const (
	VisibilityPrivate      = "private"
	VisibilityOrganization = "organization"
	VisibilityPublic       = "public"

	StatusCreated      = "created"
	StatusInitializing = "initializing"
	StatusReady        = "ready"
)

// Namespace is the Graph entity as returned to API callers.
type Namespace struct {
	GraphID         string    `json:"graphId"`
	Namespace       string    `json:"namespace"`
	ProjectName     string    `json:"projectName"`
	ProjectPath     string    `json:"projectPath,omitempty"`
	Visibility      string    `json:"visibility"`
	Organization    string    `json:"organization,omitempty"`
	UserID          string    `json:"userId"`
	DocumentCounts  int64     `json:"documentCounts"`
	Status          string    `json:"status"`
	TotalDocuments  int64     `json:"totalDocuments"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store is the Graph namespace repository backed by the property graph.
type Store struct {
	graph *gg.Manager
}

func NewStore(graph *gg.Manager) *Store {
	return &Store{graph: graph}
}

// InitInput is the request body for namespace creation.
type InitInput struct {
	ProjectName  string
	ProjectPath  string
	Visibility   string
	Organization string
	UserID       string
}

// Init creates a new Graph namespace, owned by UserID.
func (s *Store) Init(ctx context.Context, in InitInput) (*Namespace, error) {
	if in.ProjectName == "" {
		return nil, errs.ErrMissingField("projectName")
	}
	if in.UserID == "" {
		return nil, errs.ErrMissingField("userId")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	now := time.Now().UTC()
	ns := &Namespace{
		GraphID:      uuid.NewString(),
		Namespace:    fmt.Sprintf("%s-%s", slug(in.ProjectName), shortID()),
		ProjectName:  in.ProjectName,
		ProjectPath:  in.ProjectPath,
		Visibility:   visibility,
		Organization: in.Organization,
		UserID:       in.UserID,
		Status:       StatusCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.graph.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			CREATE (p:Project {
				graphId: $graphId, namespace: $namespace, projectName: $projectName,
				projectPath: $projectPath, visibility: $visibility, organization: $organization,
				userId: $userId, documentCounts: 0, status: $status, totalDocuments: 0,
				createdAt: $createdAt, updatedAt: $updatedAt
			})`, map[string]interface{}{
			"graphId":     ns.GraphID,
			"namespace":   ns.Namespace,
			"projectName": ns.ProjectName,
			"projectPath": ns.ProjectPath,
			"visibility":  ns.Visibility,
			"organization": ns.Organization,
			"userId":      ns.UserID,
			"status":      ns.Status,
			"createdAt":   ns.CreatedAt.Format(time.RFC3339Nano),
			"updatedAt":   ns.UpdatedAt.Format(time.RFC3339Nano),
		})
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// Get fetches a namespace by graphId.
func (s *Store) Get(ctx context.Context, graphID string) (*Namespace, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (p:Project {graphId: $graphId}) RETURN p`, map[string]interface{}{"graphId": graphID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		props, ok := gg.NodeProps(record, "p")
		if !ok {
			return nil, nil
		}
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.ErrGraphNotFound(graphID)
	}
	return namespaceFromProps(result.(map[string]interface{})), nil
}

// ListOwned lists namespaces owned by userID.
func (s *Store) ListOwned(ctx context.Context, userID string) ([]Namespace, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (p:Project {userId: $userId}) RETURN p ORDER BY p.createdAt DESC`, map[string]interface{}{"userId": userID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Namespace, 0, len(records))
		for _, record := range records {
			props, ok := gg.NodeProps(record, "p")
			if !ok {
				continue
			}
			out = append(out, *namespaceFromProps(props))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Namespace), nil
}

// OwnerOf implements identity.GraphOwnership.
func (s *Store) OwnerOf(ctx context.Context, graphID string) (string, bool, error) {
	result, err := s.graph.Read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `MATCH (p:Project {graphId: $graphId}) RETURN p.userId AS userId`, map[string]interface{}{"graphId": graphID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return "", nil
		}
		userID, _ := record.Get("userId")
		s, _ := userID.(string)
		return s, nil
	})
	if err != nil {
		return "", false, err
	}
	userID, _ := result.(string)
	if userID == "" {
		return "", false, nil
	}
	return userID, true, nil
}

func namespaceFromProps(props map[string]interface{}) *Namespace {
	return &Namespace{
		GraphID:        gg.StringProp(props, "graphId"),
		Namespace:      gg.StringProp(props, "namespace"),
		ProjectName:    gg.StringProp(props, "projectName"),
		ProjectPath:    gg.StringProp(props, "projectPath"),
		Visibility:     gg.StringProp(props, "visibility"),
		Organization:   gg.StringProp(props, "organization"),
		UserID:         gg.StringProp(props, "userId"),
		DocumentCounts: gg.Int64Prop(props, "documentCounts"),
		Status:         gg.StringProp(props, "status"),
		TotalDocuments: gg.Int64Prop(props, "totalDocuments"),
		CreatedAt:      gg.TimeProp(props, "createdAt"),
		UpdatedAt:      gg.TimeProp(props, "updatedAt"),
	}
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "project"
	}
	return string(out)
}

func shortID() string {
	id := uuid.NewString()
	return id[:8]
}

var _ identity.GraphOwnership = (*Store)(nil)
