package relational

import "time"

// Organization mirrors the `organizations` relational table.
type Organization struct {
	ID                   string     `json:"id"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus   string     `json:"subscription_status"`
	PlanTier             string     `json:"plan_tier"`
	SeatCount            int        `json:"seat_count"`
	PaymentStatus        string     `json:"payment_status"`
	PaymentAttemptCount  int        `json:"payment_attempt_count"`
	LastPaymentAt        *time.Time `json:"last_payment_at,omitempty"`
	PaymentFailedAt      *time.Time `json:"payment_failed_at,omitempty"`
}

// Team mirrors the `teams` table; GraphID links the relational row into the
// graph namespace it governs membership for, OrganizationID into billing.
type Team struct {
	ID             string `json:"id"`
	GraphID        string `json:"graph_id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
}

// TeamMember mirrors the `team_members` table.
type TeamMember struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"` // owner | admin | member | viewer
	JoinedAt time.Time `json:"joined_at"`
	LastSync *time.Time `json:"last_sync_at,omitempty"`
}

// TeamInvitation mirrors the `team_invitations` table.
type TeamInvitation struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"team_id"`
	Code      string     `json:"code"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"` // pending | accepted | expired | revoked
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserProfile mirrors the `user_profiles` table, used to enrich member listings.
type UserProfile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// BillingEvent mirrors one row of the `billing_events` audit log.
type BillingEvent struct {
	ID             string    `json:"id"`
	ProviderEventID string   `json:"provider_event_id"`
	Type           string    `json:"type"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Payload        string    `json:"payload,omitempty"`
	ProcessedAt    time.Time `json:"processed_at"`
}

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
)
