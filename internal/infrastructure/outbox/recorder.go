package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
)

type Recorder struct {
	Repo Repository
}

func (r *Recorder) Record(ctx context.Context, evt event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return err
	}

	id := evt.ID
	if id == "" {
		id = uuid.NewString()
	}

	createdAt := evt.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.Repo.Save(ctx, OutboxEvent{
		ID:        id,
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: createdAt,
	})
}
