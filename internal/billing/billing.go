// Package billing implements Stripe webhook reconciliation and seat-count
// synchronization against subscriptions.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"

	"github.com/ginkoai/ginko/internal/errs"
	"github.com/ginkoai/ginko/internal/logging"
	"github.com/ginkoai/ginko/internal/relational"
)

const (
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventCheckoutCompleted   = "checkout.session.completed"

	freeTierSeatCount = 2
)

// Reconciler dispatches verified Stripe webhook events onto the relational
// organization/billing_events tables.
type Reconciler struct {
	repo          *relational.Repository
	webhookSecret string
	sc            *client.API
	log           *logging.Logger
}

func NewReconciler(repo *relational.Repository, webhookSecret, stripeSecretKey string, log *logging.Logger) *Reconciler {
	sc := &client.API{}
	sc.Init(stripeSecretKey, nil)
	return &Reconciler{repo: repo, webhookSecret: webhookSecret, sc: sc, log: log}
}

// HandleWebhook verifies the signature, dispatches by event type, and writes
// the audit row. Audit failures are logged but never fail the webhook.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEvent(payload, signatureHeader, r.webhookSecret)
	if err != nil {
		return errs.Wrap(errs.AuthInvalid, "invalid webhook signature", 401, err)
	}

	existing, err := r.repo.FindBillingEventByProviderID(ctx, event.ID)
	if err == nil && existing != nil {
		return nil // already processed; provider retries are idempotent no-ops
	}
	if err != nil && !errors.Is(err, relational.ErrNotFound) {
		r.log.WithError(err).Warn("billing event idempotence check failed")
	}

	dispatchErr := r.dispatch(ctx, event)

	auditErr := r.repo.InsertBillingEvent(ctx, relational.BillingEvent{
		ProviderEventID: event.ID,
		Type:            string(event.Type),
		Payload:         string(event.Data.Raw),
		ProcessedAt:     time.Now().UTC(),
	})
	if auditErr != nil {
		r.log.WithError(auditErr).Warn("billing event audit write failed")
	}

	return dispatchErr
}

func (r *Reconciler) dispatch(ctx context.Context, event stripe.Event) error {
	raw := event.Data.Raw
	switch event.Type {
	case EventSubscriptionUpdated:
		return r.onSubscriptionUpdated(ctx, raw)
	case EventSubscriptionDeleted:
		return r.onSubscriptionDeleted(ctx, raw)
	case EventPaymentFailed:
		return r.onPaymentFailed(ctx, raw)
	case EventPaymentSucceeded:
		return r.onPaymentSucceeded(ctx, raw)
	case EventCheckoutCompleted:
		return r.onCheckoutCompleted(ctx, raw)
	default:
		return nil
	}
}

func (r *Reconciler) onSubscriptionUpdated(ctx context.Context, raw []byte) error {
	customerID := gjson.GetBytes(raw, "customer").String()
	subscriptionID := gjson.GetBytes(raw, "id").String()
	status := gjson.GetBytes(raw, "status").String()
	seatCount := int(gjson.GetBytes(raw, "items.data.0.quantity").Int())

	org, err := r.repo.GetOrganizationByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	patch := map[string]interface{}{
		"stripe_subscription_id": subscriptionID,
		"subscription_status":    status,
		"seat_count":             seatCount,
	}
	return r.repo.UpdateOrganization(ctx, org.ID, patch)
}

func (r *Reconciler) onSubscriptionDeleted(ctx context.Context, raw []byte) error {
	customerID := gjson.GetBytes(raw, "customer").String()
	org, err := r.repo.GetOrganizationByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return r.repo.UpdateOrganization(ctx, org.ID, map[string]interface{}{
		"plan_tier":              "free",
		"seat_count":             freeTierSeatCount,
		"stripe_subscription_id": nil,
		"subscription_status":    "canceled",
	})
}

func (r *Reconciler) onPaymentFailed(ctx context.Context, raw []byte) error {
	customerID := gjson.GetBytes(raw, "customer").String()
	org, err := r.repo.GetOrganizationByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return r.repo.UpdateOrganization(ctx, org.ID, map[string]interface{}{
		"payment_status":        "failed",
		"payment_attempt_count": org.PaymentAttemptCount + 1,
		"payment_failed_at":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Reconciler) onPaymentSucceeded(ctx context.Context, raw []byte) error {
	customerID := gjson.GetBytes(raw, "customer").String()
	org, err := r.repo.GetOrganizationByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return r.repo.UpdateOrganization(ctx, org.ID, map[string]interface{}{
		"payment_status":        "ok",
		"payment_attempt_count": 0,
		"last_payment_at":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Reconciler) onCheckoutCompleted(ctx context.Context, raw []byte) error {
	customerID := gjson.GetBytes(raw, "customer").String()
	subscriptionID := gjson.GetBytes(raw, "subscription").String()
	organizationID := gjson.GetBytes(raw, "metadata.organizationId").String()

	var org *relational.Organization
	var err error
	if organizationID != "" {
		org, err = r.repo.GetOrganization(ctx, organizationID)
	} else {
		org, err = r.repo.GetOrganizationByStripeCustomer(ctx, customerID)
	}
	if err != nil {
		return err
	}
	return r.repo.UpdateOrganization(ctx, org.ID, map[string]interface{}{
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": subscriptionID,
		"plan_tier":              "team",
	})
}

// SyncSeats implements team.SeatSyncer: it reconciles the subscription's
// quantity with the observed member count. Additions prorate immediately;
// removals are scheduled for period end via proration behavior.
func (r *Reconciler) SyncSeats(ctx context.Context, org *relational.Organization, seatCount int) error {
	if org == nil || org.StripeSubscriptionID == nil || *org.StripeSubscriptionID == "" {
		return nil
	}
	if org.SeatCount == seatCount {
		return nil
	}

	sub, err := r.sc.Subscriptions.Get(*org.StripeSubscriptionID, nil)
	if err != nil {
		return fmt.Errorf("fetch subscription: %w", err)
	}
	if len(sub.Items.Data) == 0 {
		return fmt.Errorf("subscription %s has no line items", *org.StripeSubscriptionID)
	}

	prorationBehavior := stripe.SubscriptionProrationBehaviorCreateProrations
	if seatCount < org.SeatCount {
		prorationBehavior = stripe.SubscriptionProrationBehaviorNone
	}

	params := &stripe.SubscriptionParams{
		ProrationBehavior: stripe.String(string(prorationBehavior)),
		Items: []*stripe.SubscriptionItemsParams{{
			ID:       stripe.String(sub.Items.Data[0].ID),
			Quantity: stripe.Int64(int64(seatCount)),
		}},
	}
	if _, err := r.sc.Subscriptions.Update(*org.StripeSubscriptionID, params); err != nil {
		return fmt.Errorf("update subscription quantity: %w", err)
	}
	return r.repo.UpdateOrganization(ctx, org.ID, map[string]interface{}{"seat_count": seatCount})
}
