package inmemory

import (
	"context"
	"sync"

	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
)

type EventLog struct {
	mu     sync.RWMutex
	seen   map[string]struct{}
	events []session.ReconciliationEvent
}

func NewEventLog() *EventLog {
	return &EventLog{
		seen: make(map[string]struct{}),
	}
}

func (l *EventLog) Append(_ context.Context, evt session.ReconciliationEvent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if evt.EventID != "" {
		if _, dup := l.seen[evt.EventID]; dup {
			return false, nil
		}
		l.seen[evt.EventID] = struct{}{}
	}

	l.events = append(l.events, evt)
	return true, nil
}

func (l *EventLog) ListBySession(_ context.Context, sessionID string) ([]session.ReconciliationEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []session.ReconciliationEvent
	for _, evt := range l.events {
		if evt.SessionID == sessionID {
			out = append(out, evt)
		}
	}
	return out, nil
}
