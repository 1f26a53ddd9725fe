package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("payment session not found")

type Repository interface {
	// Save stores s as the current session of its order. A previous current
	// session of the same order is superseded and, if still open, expired.
	Save(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindCurrentByOrderID(ctx context.Context, orderID string) (*Session, error)
	// Transition atomically moves the session to status `to` only when its
	// current status is one of to.Sources(). It reports whether it did.
	Transition(ctx context.Context, id string, to Status) (bool, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Session, error)
}

type EventLog interface {
	// Append stores evt unless an event with the same EventID exists.
	Append(ctx context.Context, evt ReconciliationEvent) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]ReconciliationEvent, error)
}
