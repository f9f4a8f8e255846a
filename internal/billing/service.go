package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/kukiwrite/kukiwrite/internal/config"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	inats "github.com/kukiwrite/kukiwrite/internal/nats"
	"github.com/kukiwrite/kukiwrite/internal/users"
)

var (
	ErrPriceNotConfigured   = errors.New("Stripe price ID not configured")
	ErrWebhookNotConfigured = errors.New("Missing signature or webhook secret")
	ErrUserNotFound         = errors.New("User not found")
	ErrNoCustomer           = errors.New("No billing account found")
)

// UserLookup finds the user a Stripe customer is created for.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

type Service struct {
	repo    Repository
	gateway Gateway
	users   UserLookup
	audit   *audit.Recorder
	cfg     config.StripeConfig
}

func NewService(repo Repository, gateway Gateway, userLookup UserLookup, auditor *audit.Recorder, cfg config.StripeConfig) *Service {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Service{
		repo:    repo,
		gateway: gateway,
		users:   userLookup,
		audit:   auditor,
		cfg:     cfg,
	}
}

// Checkout starts a subscription checkout and returns its URL. A Stripe
// customer carrying the user's ID in metadata is created on first use.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.cfg.PriceID == "" {
		return "", ErrPriceNotConfigured
	}

	customerID, err := s.repo.CustomerIDForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("loading user: %w", err)
		}
		if user == nil {
			return "", ErrUserNotFound
		}
		customerID, err = s.gateway.CreateCustomer(ctx, user.Email, userID.String())
		if err != nil {
			return "", err
		}
	}

	return s.gateway.CreateCheckoutSession(ctx, customerID, s.cfg.PriceID,
		s.cfg.FrontendURL+"/billing?success=true",
		s.cfg.FrontendURL+"/billing?canceled=true")
}

// Portal returns a billing portal URL for a user who has checked out before.
func (s *Service) Portal(ctx context.Context, userID uuid.UUID) (string, error) {
	customerID, err := s.repo.CustomerIDForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		return "", ErrNoCustomer
	}
	return s.gateway.CreatePortalSession(ctx, customerID, s.cfg.FrontendURL+"/billing")
}

// ConstructEvent verifies a webhook payload against the configured secret.
func (s *Service) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if signature == "" || s.cfg.WebhookSecret == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}
	return webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

// HandleEvent applies a verified webhook event to the subscriptions table.
// Unknown event types are logged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decoding checkout session: %w", err)
		}
		return s.checkoutCompleted(ctx, &sess)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decoding subscription: %w", err)
		}
		info := subscriptionInfo(&sub)
		return s.updateStatus(ctx, info.CustomerID, info.Status, &info.CurrentPeriodEnd)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decoding subscription: %w", err)
		}
		info := subscriptionInfo(&sub)
		return s.updateStatus(ctx, info.CustomerID, string(stripe.SubscriptionStatusCanceled), nil)

	default:
		slog.Info("unhandled stripe event", "type", event.Type)
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Customer == nil || sess.Subscription == nil {
		slog.Warn("checkout session without customer or subscription", "session_id", sess.ID)
		return nil
	}
	customerID := sess.Customer.ID

	rawUserID, err := s.gateway.CustomerUserID(ctx, customerID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		slog.Error("no userId in customer metadata", "customer_id", customerID)
		return nil
	}

	info, err := s.gateway.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}
	if info.PriceID == "" {
		slog.Error("no price ID in subscription", "subscription_id", info.ID)
		return nil
	}

	sub := &Subscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: info.ID,
		StripePriceID:        info.PriceID,
		Status:               info.Status,
		CurrentPeriodEnd:     info.CurrentPeriodEnd,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return err
	}
	s.recordUpdate(ctx, sub.UserID, sub.Status, sub.CurrentPeriodEnd)
	return nil
}

func (s *Service) updateStatus(ctx context.Context, customerID, status string, periodEnd *time.Time) error {
	if customerID == "" {
		slog.Warn("subscription event without customer")
		return nil
	}
	owners, err := s.repo.UpdateByCustomer(ctx, customerID, status, periodEnd)
	if err != nil {
		return err
	}
	var end time.Time
	if periodEnd != nil {
		end = *periodEnd
	}
	for _, userID := range owners {
		s.recordUpdate(ctx, userID, status, end)
	}
	return nil
}

func (s *Service) recordUpdate(ctx context.Context, userID uuid.UUID, status string, periodEnd time.Time) {
	details := "status " + status
	if !periodEnd.IsZero() {
		details += " until " + periodEnd.Format(time.RFC3339)
	}
	s.audit.Record(ctx, inats.AuditEvent{
		OwnerUserID:  userID,
		EventType:    audit.EventSubscriptionUpdated,
		ResourceType: "subscription",
		Details:      details,
	})
}
