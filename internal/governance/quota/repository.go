package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reader answers the two questions the gate asks of storage.
type Reader interface {
	HasActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
	CountGenerationsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Store is the quota persistence layer.
type Store interface {
	Reader
	// InUserLock runs fn inside a single transaction that holds a per-user lock.
	// Reads through the supplied Reader see that transaction.
	InUserLock(ctx context.Context, userID uuid.UUID, fn func(r Reader, tx pgx.Tx) error) error
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type reader struct {
	db queryRower
}

func (r reader) HasActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM subscriptions
		   WHERE user_id = $1 AND status = 'active' AND current_period_end >= $2)`,
		userID, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking active subscription: %w", err)
	}
	return exists, nil
}

func (r reader) CountGenerationsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM generations WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting generations: %w", err)
	}
	return count, nil
}

// Repository is the PostgreSQL Store.
type Repository struct {
	reader
	pool *pgxpool.Pool
}

// NewRepository creates a new quota Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{reader: reader{db: pool}, pool: pool}
}

// InUserLock serializes callers per user with a transaction-scoped advisory lock.
func (r *Repository) InUserLock(ctx context.Context, userID uuid.UUID, fn func(Reader, pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning quota transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String()); err != nil {
		return fmt.Errorf("acquiring quota lock: %w", err)
	}

	if err := fn(reader{db: tx}, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing quota transaction: %w", err)
	}
	return nil
}
