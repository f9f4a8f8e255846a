package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Subscription matches the subscriptions table.
type Subscription struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"userId"`
	StripeCustomerID     string    `json:"stripeCustomerId"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId"`
	StripePriceID        string    `json:"stripePriceId"`
	Status               string    `json:"status"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
}

type Repository interface {
	// Upsert inserts or replaces the row keyed by stripe_customer_id.
	Upsert(ctx context.Context, s *Subscription) error
	// UpdateByCustomer sets status, and the period end when non-nil. It returns
	// the affected user IDs.
	UpdateByCustomer(ctx context.Context, customerID, status string, periodEnd *time.Time) ([]uuid.UUID, error)
	CustomerIDForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Upsert(ctx context.Context, s *Subscription) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, status, current_period_end)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (stripe_customer_id) DO UPDATE
		 SET stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		     stripe_price_id = EXCLUDED.stripe_price_id,
		     status = EXCLUDED.status,
		     current_period_end = EXCLUDED.current_period_end,
		     updated_at = NOW()
		 RETURNING id, user_id`,
		s.UserID, s.StripeCustomerID, s.StripeSubscriptionID, s.StripePriceID, s.Status, s.CurrentPeriodEnd,
	).Scan(&s.ID, &s.UserID)
	if err != nil {
		return fmt.Errorf("upserting subscription: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateByCustomer(ctx context.Context, customerID, status string, periodEnd *time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE subscriptions
		 SET status = $2, current_period_end = COALESCE($3, current_period_end), updated_at = NOW()
		 WHERE stripe_customer_id = $1
		 RETURNING user_id`,
		customerID, status, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("updating subscription: %w", err)
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning subscription owner: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (r *postgresRepository) CustomerIDForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	var customerID string
	err := r.pool.QueryRow(ctx,
		`SELECT stripe_customer_id FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("querying stripe customer: %w", err)
	}
	return customerID, nil
}
