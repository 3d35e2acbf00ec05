// Package team implements membership, invitations, and seat-billing
// synchronization against the relational identity store.
package team

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/relational"
)

// SeatSyncer reconciles a subscription's seat quantity with a provider;
// implemented by the billing package's Stripe client.
type SeatSyncer interface {
	SyncSeats(ctx context.Context, org *relational.Organization, seatCount int) error
}

// Service implements team membership, invitations, and seat sync.
type Service struct {
	repo *relational.Repository
	seats SeatSyncer
}

func NewService(repo *relational.Repository, seats SeatSyncer) *Service {
	return &Service{repo: repo, seats: seats}
}

func randomCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Invite creates a pending invitation.
func (s *Service) Invite(ctx context.Context, teamID, email, role, createdBy string, ttl time.Duration) (*relational.TeamInvitation, error) {
	if teamID == "" {
		return nil, errs.ErrMissingField("teamId")
	}
	if email == "" {
		return nil, errs.ErrMissingField("email")
	}
	code, err := randomCode()
	if err != nil {
		return nil, errs.ErrInternal(err)
	}
	inv := relational.TeamInvitation{
		TeamID: teamID, Code: code, Email: email, Role: role,
		Status: relational.InvitationPending, ExpiresAt: time.Now().UTC().Add(ttl),
		CreatedBy: createdBy,
	}
	return s.repo.InsertInvitation(ctx, inv)
}

// Preview returns an invitation by code, flipping it to expired as a side
// effect when its expiry has passed.
func (s *Service) Preview(ctx context.Context, code string) (*relational.TeamInvitation, error) {
	inv, err := s.repo.GetInvitationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return nil, errs.ErrInvitationNotFound()
		}
		return nil, err
	}
	if inv.Status == relational.InvitationPending && time.Now().UTC().After(inv.ExpiresAt) {
		_ = s.repo.UpdateInvitationStatus(ctx, inv.ID, relational.InvitationExpired)
		inv.Status = relational.InvitationExpired
	}
	if inv.Status != relational.InvitationPending {
		return nil, errs.New(errs.Code("invitation_not_pending"), "invitation is no longer pending", 409).WithDetails("status", inv.Status)
	}
	return inv, nil
}

// Accept redeems a valid invitation code for the authenticated user.
func (s *Service) Accept(ctx context.Context, code, userID string) (*relational.TeamMember, error) {
	inv, err := s.Preview(ctx, code)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMembership(ctx, inv.TeamID, userID)
	if err != nil && !errors.Is(err, relational.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrConflict("user is already a member").WithDetails("role", existing.Role)
	}

	member, err := s.repo.InsertMember(ctx, relational.TeamMember{TeamID: inv.TeamID, UserID: userID, Role: inv.Role})
	if err != nil {
		return nil, err
	}
	_ = s.repo.UpdateInvitationStatus(ctx, inv.ID, relational.InvitationAccepted)

	s.syncSeatsBestEffort(ctx, inv.TeamID)
	return member, nil
}

// Remove removes a member, enforcing the owner-floor and self-or-owner
// authorization rule.
func (s *Service) Remove(ctx context.Context, teamID, targetUserID, callerUserID string) error {
	target, err := s.repo.GetMembership(ctx, teamID, targetUserID)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return nil
		}
		return err
	}

	if callerUserID != targetUserID {
		caller, err := s.repo.GetMembership(ctx, teamID, callerUserID)
		if err != nil || caller.Role != relational.RoleOwner {
			return errs.ErrForbidden("only the team owner may remove another member")
		}
	}

	if target.Role == relational.RoleOwner {
		owners, err := s.repo.CountOwners(ctx, teamID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return errs.ErrForbidden("cannot remove the last owner")
		}
	}

	if err := s.repo.DeleteMember(ctx, target.ID); err != nil {
		return err
	}
	s.syncSeatsBestEffort(ctx, teamID)
	return nil
}

// ListMembers returns every member of a team.
func (s *Service) ListMembers(ctx context.Context, teamID string) ([]relational.TeamMember, error) {
	return s.repo.ListMembers(ctx, teamID)
}

// GraphID resolves the graph namespace a team's activity is recorded under.
func (s *Service) GraphID(ctx context.Context, teamID string) (string, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return "", errs.ErrTeamNotFound(teamID)
		}
		return "", err
	}
	return team.GraphID, nil
}

// SyncMembership updates the caller's last_sync_at timestamp.
func (s *Service) SyncMembership(ctx context.Context, graphID, userID string, syncedAt time.Time) error {
	team, err := s.repo.GetTeamByGraphID(ctx, graphID)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return errs.ErrGraphNotFound(graphID)
		}
		return err
	}
	member, err := s.repo.GetMembership(ctx, team.ID, userID)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return errs.ErrAccessDenied()
		}
		return err
	}
	if syncedAt.IsZero() {
		syncedAt = time.Now().UTC()
	}
	member.LastSync = &syncedAt
	_, err = s.repo.InsertMember(ctx, *member)
	return err
}

// syncSeatsBestEffort reconciles seat count with the provider; failures are
// logged by the caller chain, never surfaced to the membership transaction.
func (s *Service) syncSeatsBestEffort(ctx context.Context, teamID string) {
	if s.seats == nil {
		return
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return
	}
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return
	}
	org, err := s.repo.GetOrganization(ctx, team.OrganizationID)
	if err != nil {
		return
	}
	_ = s.seats.SyncSeats(ctx, org, len(members))
}
