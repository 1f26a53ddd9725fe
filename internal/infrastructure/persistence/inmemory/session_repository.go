package inmemory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	current  map[string]string
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*session.Session),
		current:  make(map[string]string),
		now:      time.Now,
	}
}

func clone(s *session.Session) *session.Session {
	c := *s
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		c.ExpiresAt = &t
	}
	c.RawResponse = slices.Clone(s.RawResponse)
	return &c
}

func (r *SessionRepository) Save(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	if prevID, ok := r.current[s.OrderID]; ok && prevID != s.ID {
		if prev, ok := r.sessions[prevID]; ok {
			prev.Current = false
			if !prev.Status.Terminal() {
				prev.Status = session.StatusExpired
			}
			prev.UpdatedAt = now
		}
	}

	stored := clone(s)
	stored.Current = true
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	// a known id keeps its owner, status and creation time
	if existing, ok := r.sessions[s.ID]; ok {
		stored.OrderID = existing.OrderID
		stored.Status = existing.Status
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = now

	r.sessions[s.ID] = stored
	r.current[stored.OrderID] = s.ID

	s.OrderID = stored.OrderID
	s.Status = stored.Status
	s.Current = true
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *SessionRepository) FindByID(_ context.Context, id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return clone(s), nil
}

func (r *SessionRepository) FindCurrentByOrderID(_ context.Context, orderID string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.current[orderID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return clone(r.sessions[id]), nil
}

func (r *SessionRepository) Transition(_ context.Context, id string, to session.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false, session.ErrSessionNotFound
	}
	if !session.CanTransition(s.Status, to) {
		return false, nil
	}

	s.Status = to
	s.UpdatedAt = r.now().UTC()
	return true, nil
}

func (r *SessionRepository) FindExpired(_ context.Context, now time.Time, limit int) ([]*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*session.Session
	for _, s := range r.sessions {
		if s.Current && !s.Status.Terminal() && s.Expired(now) {
			out = append(out, clone(s))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
