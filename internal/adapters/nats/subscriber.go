package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/hoply/hoply/internal/core/domain"
)

// Subscriber implements ports.CatalogSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing conn.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCatalogUpdates delivers every new catalog update to handler.
// The consumer is ephemeral so each API instance sees each update.
func (s *Subscriber) SubscribeCatalogUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.CatalogUpdate) error) error {
	sub, err := s.js.Subscribe(SubjectCatalogUpdated, func(msg *nats.Msg) {
		u, err := DecodeCatalogUpdate(msg.Data)
		if err != nil {
			slog.Warn("dropping malformed catalog update", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, u); err != nil {
			slog.Warn("catalog update handler failed", "version", u.Version, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectCatalogUpdated, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Ping reports whether the connection is up.
func (s *Subscriber) Ping(ctx context.Context) error {
	if !s.conn.IsConnected() {
		return fmt.Errorf("nats: %s", s.conn.Status())
	}
	return nil
}

// Close unsubscribes. The connection is owned by the caller.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
