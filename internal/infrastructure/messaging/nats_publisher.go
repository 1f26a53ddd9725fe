package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
)

const publishTimeout = 5 * time.Second

// StreamPublisher is the part of jetstream.JetStream the publisher uses.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher sends domain events to JetStream, one subject per event type.
// The event id doubles as the JetStream message id so redelivery from the
// outbox is deduplicated by the server.
type NATSPublisher struct {
	js     StreamPublisher
	conn   *nats.Conn
	prefix string
}

type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Connect dials NATS and makes sure a stream covering "<prefix>.>" exists.
func Connect(ctx context.Context, url, prefix string, logger logging.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("pixgate"),
		nats.ReconnectWait(3*time.Second),
		nats.MaxReconnects(-1),
		nats.PingInterval(10*time.Second),
		nats.MaxPingsOutstanding(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", map[string]any{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", map[string]any{"url": c.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("initializing jetstream: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       strings.ToUpper(prefix),
		Subjects:   []string{prefix + ".>"},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 10 * time.Minute,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating stream: %w", err)
	}

	logger.Info("connected to jetstream", map[string]any{"url": url, "stream": strings.ToUpper(prefix)})

	return &NATSPublisher{js: js, conn: nc, prefix: prefix}, nil
}

func NewNATSPublisher(js StreamPublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{js: js, prefix: prefix}
}

func Subject(prefix string, t event.Type) string {
	return prefix + "." + strings.ToLower(string(t))
}

func (p *NATSPublisher) Publish(evt event.Event) error {
	data, err := json.Marshal(envelope{
		ID:         evt.ID,
		Type:       string(evt.Type),
		OccurredAt: evt.OccurredAt,
		Payload:    evt.Payload,
	})
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", evt.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if _, err := p.js.Publish(ctx, Subject(p.prefix, evt.Type), data, jetstream.WithMsgID(evt.ID)); err != nil {
		return fmt.Errorf("publishing event %s: %w", evt.ID, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
