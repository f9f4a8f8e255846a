package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventGenerationCompleted    = "generation_completed"
	EventGenerationFailed       = "generation_failed"
	EventGenerationRecordFailed = "generation_record_failed"
	EventQuotaExceeded          = "quota_exceeded"
	EventSubscriptionUpdated    = "subscription_updated"
	EventAPIKeyCreated          = "api_key_created"
	EventAPIKeyRevoked          = "api_key_revoked"
)

// Severities.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// AuditLog matches the audit_logs table schema.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OwnerUserID  uuid.UUID       `json:"owner_user_id" db:"owner_user_id"`
	EventType    string          `json:"event_type" db:"event_type"`
	Severity     string          `json:"severity" db:"severity"`
	ResourceType string          `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ListParams filters an owner's audit trail. Zero values mean no filter.
type ListParams struct {
	EventType  string
	Severity   string
	ResourceID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

const (
	MaxPageSize = 100
	// MaxPage keeps the page offset far from integer overflow.
	MaxPage = 10000
)

// Clamped returns p with Page forced into [1, MaxPage] and an out of range
// PageSize replaced by the default.
func (p ListParams) Clamped() ListParams {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultListParams().PageSize
	}
	return p
}

// DefaultListParams is the first page of twenty.
func DefaultListParams() ListParams {
	return ListParams{
		Page:     1,
		PageSize: 20,
	}
}
