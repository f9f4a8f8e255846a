package generations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	InsertPending(ctx context.Context, tx pgx.Tx, g *Generation) error
	Complete(ctx context.Context, id uuid.UUID, output, model string, tokensUsed int) error
	DeletePending(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Generation, error)
	List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Generation, int64, error)
	Update(ctx context.Context, userID, id uuid.UUID, p Patch) (*Generation, error)
	SetScore(ctx context.Context, userID, id uuid.UUID, score int) (bool, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectColumns = `id, user_id, type, input, output, model, status, tokens_used, tags, category, is_favorite, score, created_at`

func scanGeneration(row pgx.Row) (*Generation, error) {
	var g Generation
	err := row.Scan(&g.ID, &g.UserID, &g.Type, &g.Input, &g.Output, &g.Model, &g.Status,
		&g.TokensUsed, &g.Tags, &g.Category, &g.IsFavorite, &g.Score, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *postgresRepository) InsertPending(ctx context.Context, tx pgx.Tx, g *Generation) error {
	if g.Tags == nil {
		g.Tags = []string{}
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO generations (user_id, type, input, model, status, tags, category)
		 VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		 RETURNING id, status, created_at`,
		g.UserID, g.Type, g.Input, g.Model, g.Tags, g.Category,
	).Scan(&g.ID, &g.Status, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting pending generation: %w", err)
	}
	return nil
}

func (r *postgresRepository) Complete(ctx context.Context, id uuid.UUID, output, model string, tokensUsed int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generations SET output = $2, model = $3, tokens_used = $4, status = 'completed'
		 WHERE id = $1 AND status = 'pending'`,
		id, output, model, tokensUsed)
	if err != nil {
		return fmt.Errorf("completing generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("completing generation %s: no pending row", id)
	}
	return nil
}

func (r *postgresRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM generations WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("deleting pending generation: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	g, err := scanGeneration(r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM generations WHERE id = $1 AND user_id = $2 AND status = 'completed'`,
		id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting generation: %w", err)
	}
	return g, nil
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Generation, int64, error) {
	where := []string{"user_id = $1", "status = 'completed'"}
	args := []any{userID}

	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(input ILIKE $%d OR output ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generations WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting generations: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM generations WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			selectColumns, clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var list []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning generation: %w", err)
		}
		list = append(list, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating generations: %w", err)
	}
	return list, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, userID, id uuid.UUID, p Patch) (*Generation, error) {
	g, err := scanGeneration(r.pool.QueryRow(ctx,
		`UPDATE generations SET
		   is_favorite = COALESCE($3, is_favorite),
		   tags        = COALESCE($4, tags),
		   category    = COALESCE($5, category)
		 WHERE id = $1 AND user_id = $2 AND status = 'completed'
		 RETURNING `+selectColumns,
		id, userID, p.IsFavorite, p.Tags, p.Category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating generation: %w", err)
	}
	return g, nil
}

func (r *postgresRepository) SetScore(ctx context.Context, userID, id uuid.UUID, score int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generations SET score = $3 WHERE id = $1 AND user_id = $2`, id, userID, score)
	if err != nil {
		return false, fmt.Errorf("setting generation score: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM generations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting generation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
