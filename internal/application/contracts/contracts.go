package contracts

import (
	"context"

	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
)

// EventRecorder stores a domain event for later delivery. Recording happens
// after the state change it describes has been committed.
type EventRecorder interface {
	Record(ctx context.Context, evt event.Event) error
}
