package outbox

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
)

// OutboxEvent is a domain event with its payload already encoded as JSON.
type OutboxEvent struct {
	ID        string
	Type      event.Type
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, evt OutboxEvent) error
	// FindUnpublished returns up to limit pending events, oldest first.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}
