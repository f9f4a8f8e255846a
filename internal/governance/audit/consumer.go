package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

const (
	consumerName = "audit-persister"
	fetchBatch   = 10
	retryDelay   = 5 * time.Second
)

type outcome int

const (
	ack outcome = iota
	retry
	drop
)

// Consumer drains audit events from JetStream into audit_logs.
type Consumer struct {
	repo        Store
	consumerMgr *inats.ConsumerManager
}

func NewConsumer(repo Store, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start runs the fetch loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, consumerName, inats.SubjectAuditEvent)
	if err != nil {
		return err
	}

	slog.Info("audit consumer started", "consumer", consumerName)

	for ctx.Err() == nil {
		msgs, err := consumer.Fetch(fetchBatch, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			slog.Debug("audit consumer: fetching events", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(inats.FetchTimeout):
			}
			continue
		}

		for msg := range msgs.Messages() {
			switch c.persist(ctx, msg.Data()) {
			case ack:
				_ = msg.Ack()
			case retry:
				_ = msg.NakWithDelay(retryDelay)
			case drop:
				_ = msg.Term()
			}
		}
	}
	return nil
}

// persist stores one encoded event. Undecodable payloads are dropped since
// redelivery cannot fix them.
func (c *Consumer) persist(ctx context.Context, data []byte) outcome {
	var event inats.AuditEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("audit consumer: dropping undecodable event", "error", err)
		return drop
	}

	if err := c.repo.Insert(ctx, EventToLog(event)); err != nil {
		slog.Error("audit consumer: persisting audit log", "error", err, "event_type", event.EventType)
		return retry
	}

	slog.Debug("audit consumer: persisted event",
		"event_type", event.EventType,
		"owner", event.OwnerUserID,
		"resource_id", event.ResourceID,
	)
	return ack
}

// EventToLog converts a stream event into a row. The row id is the event id so
// redeliveries insert once. Non-UUID resource ids are dropped and details are
// stored as {"message": ...}.
func EventToLog(event inats.AuditEvent) *AuditLog {
	id := event.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	log := &AuditLog{
		ID:           id,
		OwnerUserID:  event.OwnerUserID,
		EventType:    event.EventType,
		Severity:     event.Severity,
		ResourceType: event.ResourceType,
		IPAddress:    event.IPAddress,
		CreatedAt:    event.Timestamp,
	}

	if event.ResourceID != "" {
		if parsed, err := uuid.Parse(event.ResourceID); err == nil {
			log.ResourceID = &parsed
		}
	}

	if data, err := json.Marshal(map[string]string{"message": event.Details}); err == nil {
		log.Details = data
	}

	return log
}
