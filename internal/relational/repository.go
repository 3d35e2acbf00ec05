package relational

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Repository provides typed access to the team/billing relational schema
// over the generic PostgREST Client.
type Repository struct {
	c *Client
}

// NewRepository wraps a Client with typed helpers.
func NewRepository(c *Client) *Repository {
	return &Repository{c: c}
}

func eq(col, val string) string {
	return fmt.Sprintf("%s=eq.%s", col, url.QueryEscape(val))
}

// GetOrganization fetches the organization row by id.
func (r *Repository) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	body, err := r.c.Select(ctx, "organizations", eq("id", id)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []Organization
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode organization: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// GetOrganizationByStripeCustomer fetches the organization linked to a Stripe customer id.
func (r *Repository) GetOrganizationByStripeCustomer(ctx context.Context, customerID string) (*Organization, error) {
	body, err := r.c.Select(ctx, "organizations", eq("stripe_customer_id", customerID)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []Organization
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode organization: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// UpdateOrganization patches fields on the organization row by id.
func (r *Repository) UpdateOrganization(ctx context.Context, id string, patch map[string]interface{}) error {
	_, err := r.c.Update(ctx, "organizations", patch, eq("id", id))
	return err
}

// GetTeamByGraphID finds the team governing a graph namespace.
func (r *Repository) GetTeamByGraphID(ctx context.Context, graphID string) (*Team, error) {
	body, err := r.c.Select(ctx, "teams", eq("graph_id", graphID)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []Team
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode team: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// GetTeamByID fetches a team row by its own id.
func (r *Repository) GetTeamByID(ctx context.Context, id string) (*Team, error) {
	body, err := r.c.Select(ctx, "teams", eq("id", id)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []Team
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode team: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// GetMembership finds the membership row for (teamID, userID).
func (r *Repository) GetMembership(ctx context.Context, teamID, userID string) (*TeamMember, error) {
	query := fmt.Sprintf("%s&%s&limit=1", eq("team_id", teamID), eq("user_id", userID))
	body, err := r.c.Select(ctx, "team_members", query)
	if err != nil {
		return nil, err
	}
	var rows []TeamMember
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode team member: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// ListMembers returns every member of a team.
func (r *Repository) ListMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	body, err := r.c.Select(ctx, "team_members", eq("team_id", teamID))
	if err != nil {
		return nil, err
	}
	var rows []TeamMember
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode team members: %w", err)
	}
	return rows, nil
}

// CountOwners counts members with role=owner, used to enforce the owner floor.
func (r *Repository) CountOwners(ctx context.Context, teamID string) (int, error) {
	members, err := r.ListMembers(ctx, teamID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range members {
		if m.Role == RoleOwner {
			count++
		}
	}
	return count, nil
}

// InsertMember adds a new membership row.
func (r *Repository) InsertMember(ctx context.Context, m TeamMember) (*TeamMember, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	body, err := r.c.Insert(ctx, "team_members", []TeamMember{m})
	if err != nil {
		return nil, err
	}
	var rows []TeamMember
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &m, nil
	}
	return &rows[0], nil
}

// DeleteMember removes a membership row by id.
func (r *Repository) DeleteMember(ctx context.Context, id string) error {
	_, err := r.c.Delete(ctx, "team_members", eq("id", id))
	return err
}

// GetInvitationByCode finds a pending-or-not invitation by its code.
func (r *Repository) GetInvitationByCode(ctx context.Context, code string) (*TeamInvitation, error) {
	body, err := r.c.Select(ctx, "team_invitations", eq("code", code)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []TeamInvitation
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invitation: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// InsertInvitation creates a new invitation row.
func (r *Repository) InsertInvitation(ctx context.Context, inv TeamInvitation) (*TeamInvitation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	body, err := r.c.Insert(ctx, "team_invitations", []TeamInvitation{inv})
	if err != nil {
		return nil, err
	}
	var rows []TeamInvitation
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return &inv, nil
	}
	return &rows[0], nil
}

// UpdateInvitationStatus patches the status of an invitation by id.
func (r *Repository) UpdateInvitationStatus(ctx context.Context, id, status string) error {
	_, err := r.c.Update(ctx, "team_invitations", map[string]interface{}{"status": status}, eq("id", id))
	return err
}

// GetUserProfile fetches a user_profiles row by user id.
func (r *Repository) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	body, err := r.c.Select(ctx, "user_profiles", eq("user_id", userID)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []UserProfile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// FindBillingEventByProviderID looks up a prior audit row for idempotence checks.
func (r *Repository) FindBillingEventByProviderID(ctx context.Context, providerEventID string) (*BillingEvent, error) {
	body, err := r.c.Select(ctx, "billing_events", eq("provider_event_id", providerEventID)+"&limit=1")
	if err != nil {
		return nil, err
	}
	var rows []BillingEvent
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode billing event: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// InsertBillingEvent records one processed webhook event for the audit trail.
func (r *Repository) InsertBillingEvent(ctx context.Context, ev BillingEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now().UTC()
	}
	_, err := r.c.Insert(ctx, "billing_events", []BillingEvent{ev})
	return err
}
