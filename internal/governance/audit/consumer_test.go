package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

type memStore struct {
	mu   sync.Mutex
	logs []*AuditLog
	err  error
}

func (m *memStore) Insert(_ context.Context, log *AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *memStore) ListByOwner(_ context.Context, owner uuid.UUID, _ ListParams) ([]AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AuditLog
	for _, l := range m.logs {
		if l.OwnerUserID == owner {
			out = append(out, *l)
		}
	}
	return out, int64(len(out)), nil
}

type fakePublisher struct {
	events []inats.AuditEvent
	err    error
}

func (f *fakePublisher) PublishAuditEvent(_ context.Context, event inats.AuditEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func TestEventToLog_ValidResourceID(t *testing.T) {
	genID := uuid.New()
	event := inats.AuditEvent{
		OwnerUserID:  uuid.New(),
		EventType:    EventGenerationCompleted,
		Severity:     SeverityInfo,
		ResourceType: "generation",
		ResourceID:   genID.String(),
		Details:      "BLOG via gpt-4o-mini",
		IPAddress:    "10.0.0.1",
		Timestamp:    time.Now().UTC(),
	}

	log := EventToLog(event)

	assert.Equal(t, event.OwnerUserID, log.OwnerUserID)
	assert.Equal(t, EventGenerationCompleted, log.EventType)
	assert.Equal(t, "generation", log.ResourceType)
	assert.Equal(t, "10.0.0.1", log.IPAddress)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, genID, *log.ResourceID)

	var details map[string]string
	require.NoError(t, json.Unmarshal(log.Details, &details))
	assert.Equal(t, "BLOG via gpt-4o-mini", details["message"])
}

func TestEventToLog_InvalidResourceID(t *testing.T) {
	log := EventToLog(inats.AuditEvent{
		OwnerUserID:  uuid.New(),
		EventType:    EventSubscriptionUpdated,
		ResourceType: "subscription",
		ResourceID:   "sub_1234",
	})
	assert.Nil(t, log.ResourceID)
}

func TestEventToLog_KeepsEventID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, EventToLog(inats.AuditEvent{ID: id}).ID)
	assert.NotEqual(t, uuid.Nil, EventToLog(inats.AuditEvent{}).ID)
}

func TestConsumer_Persist(t *testing.T) {
	store := &memStore{}
	c := NewConsumer(store, nil)
	owner := uuid.New()

	data, err := json.Marshal(inats.AuditEvent{OwnerUserID: owner, EventType: EventQuotaExceeded, Severity: SeverityWarn})
	require.NoError(t, err)

	assert.Equal(t, ack, c.persist(context.Background(), data))
	require.Len(t, store.logs, 1)
	assert.Equal(t, owner, store.logs[0].OwnerUserID)
	assert.Equal(t, SeverityWarn, store.logs[0].Severity)
}

func TestConsumer_PersistRejectsGarbage(t *testing.T) {
	store := &memStore{}
	c := NewConsumer(store, nil)
	assert.Equal(t, drop, c.persist(context.Background(), []byte("{not json")))
	assert.Empty(t, store.logs)
}

func TestConsumer_PersistStoreFailure(t *testing.T) {
	c := NewConsumer(&memStore{err: errors.New("db down")}, nil)
	data, _ := json.Marshal(inats.AuditEvent{OwnerUserID: uuid.New(), EventType: EventGenerationFailed})
	assert.Equal(t, retry, c.persist(context.Background(), data))
}

func TestRecorder_StampsAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRecorder(pub)
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Record(context.Background(), inats.AuditEvent{OwnerUserID: uuid.New(), EventType: EventGenerationCompleted})

	require.Len(t, pub.events, 1)
	assert.Equal(t, fixed, pub.events[0].Timestamp)
	assert.Equal(t, SeverityInfo, pub.events[0].Severity)
}

func TestRecorder_NilPublisherAndErrorsAreSilent(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Record(context.Background(), inats.AuditEvent{})
	NewRecorder(nil).Record(context.Background(), inats.AuditEvent{})

	pub := &fakePublisher{err: errors.New("nats down")}
	NewRecorder(pub).Record(context.Background(), inats.AuditEvent{EventType: EventGenerationFailed})
	assert.Len(t, pub.events, 1)
}
