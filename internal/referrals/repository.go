package referrals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCodeTaken means another user already holds the generated code.
var ErrCodeTaken = errors.New("referral code already in use")

const uniqueViolation = "23505"

type Repository interface {
	Account(ctx context.Context, userID uuid.UUID) (*Account, error)
	// AssignCode sets code unless the user already has one, and returns the
	// code the user ends up with.
	AssignCode(ctx context.Context, userID uuid.UUID, code string) (string, error)
	OwnerOfCode(ctx context.Context, code string) (uuid.UUID, bool, error)
	Create(ctx context.Context, referrerID, referredID uuid.UUID) error
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]Referral, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Account(ctx context.Context, userID uuid.UUID) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT referral_code, affiliate_earnings FROM users WHERE id = $1`, userID,
	).Scan(&a.Code, &a.Earnings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying affiliate account: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) AssignCode(ctx context.Context, userID uuid.UUID, code string) (string, error) {
	var assigned string
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET referral_code = COALESCE(referral_code, $2), updated_at = NOW()
		 WHERE id = $1
		 RETURNING referral_code`,
		userID, code,
	).Scan(&assigned)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return "", ErrCodeTaken
	}
	if err != nil {
		return "", fmt.Errorf("assigning referral code: %w", err)
	}
	return assigned, nil
}

func (r *postgresRepository) OwnerOfCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE referral_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("resolving referral code: %w", err)
	}
	return id, true, nil
}

// Create ignores a second referral of the same account.
func (r *postgresRepository) Create(ctx context.Context, referrerID, referredID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id) VALUES ($1, $2)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referrerID, referredID)
	if err != nil {
		return fmt.Errorf("inserting referral: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]Referral, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.referrer_id, r.referred_id, r.status, r.earnings, r.created_at,
		        u.name, u.email, u.created_at
		 FROM referrals r
		 JOIN users u ON u.id = r.referred_id
		 WHERE r.referrer_id = $1
		 ORDER BY r.created_at DESC`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("listing referrals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Referral, error) {
		ref := Referral{Referred: &ReferredUser{}}
		err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Status, &ref.Earnings, &ref.CreatedAt,
			&ref.Referred.Name, &ref.Referred.Email, &ref.Referred.CreatedAt)
		return ref, err
	})
}
