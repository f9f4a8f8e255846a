package apikeys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, k *APIKey) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectColumns = `id, user_id, name, key_hash, last_used_at, expires_at, created_at`

func scanKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *postgresRepository) Create(ctx context.Context, k *APIKey) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, name, key_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		k.UserID, k.Name, k.KeyHash, k.ExpiresAt,
	).Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

func (r *postgresRepository) GetByHash(ctx context.Context, keyHash string) (*APIKey, error) {
	k, err := scanKey(r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM api_keys WHERE key_hash = $1`, keyHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying api key by hash: %w", err)
	}
	return k, nil
}

func (r *postgresRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("updating api key last use: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
