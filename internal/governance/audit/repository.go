package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists and lists audit logs.
type Store interface {
	Insert(ctx context.Context, log *AuditLog) error
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID, params ListParams) ([]AuditLog, int64, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert is idempotent on the row id.
func (r *Repository) Insert(ctx context.Context, log *AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	details := log.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, owner_user_id, event_type, severity, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		log.ID, log.OwnerUserID, log.EventType, log.Severity, log.ResourceType, log.ResourceID, details, log.IPAddress, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// filter accumulates WHERE clauses with positional arguments.
type filter struct {
	clauses []string
	args    []any
}

func (f *filter) add(column, op string, value any) {
	f.args = append(f.args, value)
	f.clauses = append(f.clauses, fmt.Sprintf("%s %s $%d", column, op, len(f.args)))
}

func (f *filter) where() string {
	return strings.Join(f.clauses, " AND ")
}

func ownerFilter(ownerUserID uuid.UUID, p ListParams) *filter {
	f := &filter{}
	f.add("owner_user_id", "=", ownerUserID)
	if p.ResourceID != nil {
		f.add("resource_id", "=", *p.ResourceID)
	}
	if p.EventType != "" {
		f.add("event_type", "=", p.EventType)
	}
	if p.Severity != "" {
		f.add("severity", "=", p.Severity)
	}
	if p.From != nil {
		f.add("created_at", ">=", *p.From)
	}
	if p.To != nil {
		f.add("created_at", "<=", *p.To)
	}
	return f
}

// ListByOwner returns one page of the owner's audit trail, newest first, and
// the total number of matching rows.
func (r *Repository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID, params ListParams) ([]AuditLog, int64, error) {
	params = params.Clamped()

	f := ownerFilter(ownerUserID, params)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE "+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit logs: %w", err)
	}

	limit := len(f.args) + 1
	query := fmt.Sprintf(
		`SELECT id, owner_user_id, event_type, severity, resource_type, resource_id, details, ip_address, created_at
		 FROM audit_logs WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, f.where(), limit, limit+1)
	args := append(f.args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying audit logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, pgx.RowToStructByName[AuditLog])
	if err != nil {
		return nil, 0, fmt.Errorf("scanning audit logs: %w", err)
	}
	return logs, total, nil
}
