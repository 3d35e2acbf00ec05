package relational

import (
	"context"
	"errors"

	"github.com/ginkoai/ginko/internal/identity"
)

// MembershipAdapter implements identity.TeamMembership over the relational
// team/team_members tables, enforcing restrictive semantics: a
// role is granted only by an explicit team_members row, never inferred.
type MembershipAdapter struct {
	repo *Repository
}

func NewMembershipAdapter(repo *Repository) *MembershipAdapter {
	return &MembershipAdapter{repo: repo}
}

// RoleOf implements identity.TeamMembership.
func (a *MembershipAdapter) RoleOf(ctx context.Context, graphID, userID string) (string, bool, error) {
	team, err := a.repo.GetTeamByGraphID(ctx, graphID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	member, err := a.repo.GetMembership(ctx, team.ID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return member.Role, true, nil
}

var _ identity.TeamMembership = (*MembershipAdapter)(nil)
