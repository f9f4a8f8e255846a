package audit

import (
	"context"
	"log/slog"
	"time"

	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

// EventPublisher sends audit events to the event stream.
type EventPublisher interface {
	PublishAuditEvent(ctx context.Context, event inats.AuditEvent) error
}

// Recorder publishes audit events and never fails the caller.
// A Recorder without a publisher drops events.
type Recorder struct {
	pub EventPublisher
	now func() time.Time
}

// NewRecorder creates a Recorder. pub may be nil when NATS is not configured.
func NewRecorder(pub EventPublisher) *Recorder {
	return &Recorder{pub: pub, now: time.Now}
}

// Record publishes event, stamping it when no timestamp is set.
func (r *Recorder) Record(ctx context.Context, event inats.AuditEvent) {
	if r == nil || r.pub == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if err := r.pub.PublishAuditEvent(ctx, event); err != nil {
		slog.Warn("audit: publishing event", "error", err, "event_type", event.EventType)
	}
}
