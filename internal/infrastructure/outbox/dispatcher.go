package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
)

type Publisher interface {
	Publish(event.Event) error
}

type Dispatcher struct {
	Repo         Repository
	EventBus     Publisher
	Logger       logging.Logger
	PollInterval time.Duration
	BatchSize    int
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce publishes one batch. Events that fail to publish stay
// unpublished and are retried on the next tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.logError("outbox read failed", map[string]any{"error": err.Error()})
		return 0
	}

	published := 0
	for _, evt := range events {
		domainEvent := event.Event{
			ID:         evt.ID,
			Type:       evt.Type,
			OccurredAt: evt.CreatedAt,
			Payload:    json.RawMessage(evt.Payload),
		}

		if err := d.EventBus.Publish(domainEvent); err != nil {
			d.logError("outbox publish failed", map[string]any{
				"event-id":   evt.ID,
				"event-type": string(evt.Type),
				"error":      err.Error(),
			})
			continue
		}

		if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
			d.logError("outbox mark published failed", map[string]any{
				"event-id": evt.ID,
				"error":    err.Error(),
			})
			continue
		}
		published++
	}

	return published
}

func (d *Dispatcher) logError(msg string, fields map[string]any) {
	if d.Logger != nil {
		d.Logger.Error(msg, fields)
	}
}
