package identity

import (
	"context"

	"github.com/ginkoai/ginko/internal/errs"
)

// Capability is one of the three access levels a principal may hold on a graph.
type Capability string

const (
	CapRead  Capability = "read"
	CapWrite Capability = "write"
	CapAdmin Capability = "admin"
)

// CapabilitySet is the set of capabilities resolved for one principal/graph pair.
type CapabilitySet map[Capability]bool

// Has reports whether the set grants cap.
func (s CapabilitySet) Has(cap Capability) bool {
	return s[cap]
}

func ownerCapabilities() CapabilitySet {
	return CapabilitySet{CapRead: true, CapWrite: true, CapAdmin: true}
}

// capabilitiesForRole maps a team role to a capability set.
func capabilitiesForRole(role string) CapabilitySet {
	switch role {
	case "owner", "admin":
		return CapabilitySet{CapRead: true, CapWrite: true, CapAdmin: true}
	case "member":
		return CapabilitySet{CapRead: true, CapWrite: true}
	case "viewer":
		return CapabilitySet{CapRead: true}
	default:
		return CapabilitySet{}
	}
}

// GraphOwnership answers whether a graph namespace exists and who owns it.
type GraphOwnership interface {
	OwnerOf(ctx context.Context, graphID string) (userID string, found bool, err error)
}

// TeamMembership answers a principal's role on the team governing a graph,
// implementing the restrictive semantics that are correct here:
// team membership only grants access through an explicit team_members row,
// never through a permissive fallback.
type TeamMembership interface {
	RoleOf(ctx context.Context, graphID, userID string) (role string, found bool, err error)
}

// AccessGate computes the capability set a principal holds on a graph
// namespace via ownership-then-team-role resolution.
type AccessGate struct {
	graphs GraphOwnership
	teams  TeamMembership
}

func NewAccessGate(graphs GraphOwnership, teams TeamMembership) *AccessGate {
	return &AccessGate{graphs: graphs, teams: teams}
}

// Resolve returns the capability set for principal on graphID, or an error
// classified as graph_not_found or access_denied.
func (g *AccessGate) Resolve(ctx context.Context, userID, graphID string) (CapabilitySet, error) {
	ownerID, found, err := g.graphs.OwnerOf(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.ErrGraphNotFound(graphID)
	}
	if ownerID == userID {
		return ownerCapabilities(), nil
	}

	role, found, err := g.teams.RoleOf(ctx, graphID, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.ErrAccessDenied()
	}
	caps := capabilitiesForRole(role)
	if len(caps) == 0 {
		return nil, errs.ErrAccessDenied()
	}
	return caps, nil
}

// Require resolves capabilities and fails unless the requested capability is granted,
// enforcing access monotonicity (write implies read, admin implies both) by construction.
func (g *AccessGate) Require(ctx context.Context, userID, graphID string, requested Capability) (CapabilitySet, error) {
	caps, err := g.Resolve(ctx, userID, graphID)
	if err != nil {
		return nil, err
	}
	if !caps.Has(requested) {
		return nil, errs.ErrAccessDenied()
	}
	return caps, nil
}
