package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/kukiwrite/kukiwrite/internal/config"
)

// Client owns the NATS connection used for the audit event stream.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewClient connects and makes sure the event stream exists.
func NewClient(ctx context.Context, cfg config.NATSConfig) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("kukiwrite-api"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrlRedacted())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	c := &Client{conn: nc, js: js}

	if err := c.ensureEventStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring event stream: %w", err)
	}

	slog.Info("connected to NATS", "url", cfg.URL)
	return c, nil
}

// eventStream keeps a week of audit events. The duplicate window covers
// publisher retries keyed by event id.
var eventStream = jetstream.StreamConfig{
	Name:       StreamEvents,
	Subjects:   []string{SubjectEventPrefix + ".>"},
	Retention:  jetstream.LimitsPolicy,
	Storage:    jetstream.FileStorage,
	MaxAge:     7 * 24 * time.Hour,
	Duplicates: 2 * time.Minute,
}

func (c *Client) ensureEventStream(ctx context.Context) error {
	if _, err := c.js.CreateOrUpdateStream(ctx, eventStream); err != nil {
		return fmt.Errorf("creating stream %s: %w", eventStream.Name, err)
	}
	slog.Debug("ensured NATS stream", "name", eventStream.Name)
	return nil
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Healthy reports whether the connection is currently up. Readiness uses it.
func (c *Client) Healthy() bool {
	return c.conn.IsConnected()
}

// Close drains and closes the NATS connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		slog.Warn("draining NATS connection", "error", err)
	}
}
