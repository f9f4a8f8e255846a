package brandvoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores voices with guidelines as ciphertext.
type Repository interface {
	Create(ctx context.Context, v *Voice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Voice, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Voice, error)
	Update(ctx context.Context, v *Voice) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectColumns = `id, user_id, name, description, guidelines, examples, is_default, created_at, updated_at`

func scanVoice(row pgx.Row) (*Voice, error) {
	var v Voice
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Description, &v.Guidelines, &v.Examples,
		&v.IsDefault, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// unsetDefaults clears the default flag on the user's other voices.
func unsetDefaults(ctx context.Context, tx pgx.Tx, userID, keep uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE brand_voices SET is_default = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND is_default AND id <> $2`, userID, keep)
	if err != nil {
		return fmt.Errorf("unsetting default brand voices: %w", err)
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, v *Voice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning brand voice transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if v.IsDefault {
		if err := unsetDefaults(ctx, tx, v.UserID, uuid.Nil); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO brand_voices (user_id, name, description, guidelines, examples, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		v.UserID, v.Name, v.Description, v.Guidelines, v.Examples, v.IsDefault,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting brand voice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing brand voice: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Voice, error) {
	v, err := scanVoice(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM brand_voices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying brand voice by id: %w", err)
	}
	return v, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Voice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM brand_voices WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing brand voices: %w", err)
	}
	defer rows.Close()

	var voices []Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning brand voice row: %w", err)
		}
		voices = append(voices, *v)
	}
	return voices, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, v *Voice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning brand voice transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if v.IsDefault {
		if err := unsetDefaults(ctx, tx, v.UserID, v.ID); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx,
		`UPDATE brand_voices
		 SET name = $2, description = $3, guidelines = $4, examples = $5, is_default = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		v.ID, v.Name, v.Description, v.Guidelines, v.Examples, v.IsDefault,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating brand voice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing brand voice: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM brand_voices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting brand voice: %w", err)
	}
	return nil
}
