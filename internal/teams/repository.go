package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Repository interface {
	// Create inserts the team and its owner membership in one transaction.
	Create(ctx context.Context, t *Team) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Team, error)
	Members(ctx context.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]Member, error)
	// MemberRole returns false when userID is not on the team.
	MemberRole(ctx context.Context, teamID, userID uuid.UUID) (Role, bool, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID, role Role) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, t *Team) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning team transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO teams (name, description, owner_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		t.Name, t.Description, t.OwnerID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting team: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)`,
		t.ID, t.OwnerID, RoleOwner); err != nil {
		return fmt.Errorf("inserting team owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing team: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Team, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.name, t.description, t.owner_id, m.role, t.created_at
		 FROM team_members m
		 JOIN teams t ON t.id = m.team_id
		 WHERE m.user_id = $1
		 ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Team, error) {
		var t Team
		err := row.Scan(&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.Role, &t.CreatedAt)
		return t, err
	})
}

func (r *postgresRepository) Members(ctx context.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.team_id, u.id, u.name, u.email, u.image, m.role
		 FROM team_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ANY($1::uuid[])
		 ORDER BY m.created_at`, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Member, len(teamIDs))
	for rows.Next() {
		var teamID uuid.UUID
		var m Member
		if err := rows.Scan(&teamID, &m.ID, &m.Name, &m.Email, &m.Image, &m.Role); err != nil {
			return nil, fmt.Errorf("scanning team member: %w", err)
		}
		out[teamID] = append(out[teamID], m)
	}
	return out, rows.Err()
}

func (r *postgresRepository) MemberRole(ctx context.Context, teamID, userID uuid.UUID) (Role, bool, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying team role: %w", err)
	}
	return role, true, nil
}

func (r *postgresRepository) AddMember(ctx context.Context, teamID, userID uuid.UUID, role Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)`, teamID, userID, role)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("adding team member: %w", err)
	}
	return nil
}
