package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout bounds a single batch fetch from a pull consumer.
const FetchTimeout = 2 * time.Second

const (
	StreamEvents = "KUKIWRITE_EVENTS"

	SubjectEventPrefix = "kukiwrite.events"
	SubjectAuditEvent  = SubjectEventPrefix + ".audit"
)

// AuditEvent is published for every billable or security-relevant action.
// ID doubles as the JetStream message id, so a retried publish is stored once.
type AuditEvent struct {
	ID           uuid.UUID `json:"id"`
	OwnerUserID  uuid.UUID `json:"owner_user_id"`
	EventType    string    `json:"event_type"`
	Severity     string    `json:"severity"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
