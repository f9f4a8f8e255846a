package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, t *Template) error
	List(ctx context.Context, f Filter) ([]Template, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, t *Template) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO templates (user_id, name, description, category, content, is_public, is_premium, price, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, downloads, rating, created_at`,
		t.UserID, t.Name, t.Description, t.Category, t.Content, t.IsPublic, t.IsPremium, t.Price, t.Tags,
	).Scan(&t.ID, &t.Downloads, &t.Rating, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, f Filter) ([]Template, error) {
	var (
		conds []string
		args  []any
	)
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		conds = append(conds, fmt.Sprintf("t.user_id = $%d", len(args)))
	} else {
		conds = append(conds, "t.is_public")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("t.category = $%d", len(args)))
	}
	args = append(args, ListLimit)

	query := `
		SELECT t.id, t.user_id, t.name, t.description, t.category, t.content, t.is_public, t.is_premium,
		       t.price, t.tags, t.downloads, t.rating, t.created_at, u.name
		FROM templates t
		JOIN users u ON u.id = t.user_id
		WHERE ` + strings.Join(conds, " AND ") + fmt.Sprintf(`
		ORDER BY t.downloads DESC, t.rating DESC, t.created_at DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var list []Template
	for rows.Next() {
		var t Template
		var author string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Category, &t.Content,
			&t.IsPublic, &t.IsPremium, &t.Price, &t.Tags, &t.Downloads, &t.Rating, &t.CreatedAt, &author); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		t.User = &Author{ID: t.UserID, Name: author}
		list = append(list, t)
	}
	return list, rows.Err()
}
