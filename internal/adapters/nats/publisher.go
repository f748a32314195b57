package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hoply/hoply/internal/core/domain"
)

const (
	// SubjectCatalogUpdated carries domain.CatalogUpdate events.
	SubjectCatalogUpdated = "hoply.catalog.updated"

	streamCatalog = "HOPLY_CATALOG"
)

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// ensureStreams creates or updates the streams this service publishes to.
func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      streamCatalog,
			Subjects:  []string{"hoply.catalog.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			MaxMsgs:   1000,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// Publisher implements ports.CatalogPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher enables JetStream on conn and makes sure the catalog stream
// exists.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStreams(js); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

// PublishCatalogUpdate announces a finished import.
func (p *Publisher) PublishCatalogUpdate(ctx context.Context, u *domain.CatalogUpdate) error {
	data, err := EncodeCatalogUpdate(u)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(SubjectCatalogUpdated)
	msg.Data = data
	msg.Header.Set("Content-Type", ContentType)
	msg.Header.Set(nats.MsgIdHdr, u.Version)

	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish catalog update: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
