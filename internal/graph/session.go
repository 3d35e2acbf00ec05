// Package graph wraps the property-graph driver with the read(tx)/write(tx)
// session discipline: sessions are acquired at
// operation start and released on every exit path, and all mutation happens
// inside a single write transaction per operation.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ginkoai/ginko/internal/errs"
)

// Manager owns the driver and hands out scoped sessions.
type Manager struct {
	driver neo4j.DriverWithContext
}

// NewManager dials the graph store and verifies connectivity.
func NewManager(ctx context.Context, uri, user, password string) (*Manager, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	return &Manager{driver: driver}, nil
}

// Close releases the underlying driver.
func (m *Manager) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}

// Ping is used by the readiness probe.
func (m *Manager) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.driver.VerifyConnectivity(ctx)
}

// TxFunc runs inside one transaction; its return value is passed back to the caller.
type TxFunc func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error)

// Read executes fn inside a read transaction against the default database.
func (m *Manager) Read(ctx context.Context, fn TxFunc) (interface{}, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return fn(ctx, tx)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return result, nil
}

// Write executes fn inside a single write transaction; all mutation in the
// service happens through this call.
func (m *Manager) Write(ctx context.Context, fn TxFunc) (interface{}, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return fn(ctx, tx)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return result, nil
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	return errs.ErrServiceUnavailable(err)
}

// Bootstrap creates the required indexes. Idempotent: uses
// IF NOT EXISTS so repeated calls at startup are safe.
func (m *Manager) Bootstrap(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT project_graph_id IF NOT EXISTS FOR (p:Project) REQUIRE p.graphId IS UNIQUE",
		"CREATE INDEX project_namespace IF NOT EXISTS FOR (p:Project) ON (p.namespace)",
		"CREATE INDEX project_user_id IF NOT EXISTS FOR (p:Project) ON (p.userId)",
		"CREATE INDEX task_graph_lookup IF NOT EXISTS FOR (t:Task) ON (t.graph_id, t.id)",
		"CREATE INDEX event_partition IF NOT EXISTS FOR (e:Event) ON (e.project_id, e.branch)",
		"CREATE CONSTRAINT event_id IF NOT EXISTS FOR (e:Event) REQUIRE e.id IS UNIQUE",
	}
	_, err := m.Write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
