package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*order.Order),
	}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return order.ErrOrderExists
	}

	c := *o
	c.Notes = slices.Clone(o.Notes)
	r.orders[o.ID] = &c
	return nil
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *o
	c.Notes = slices.Clone(o.Notes)
	r.orders[o.ID] = &c
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	c := *o
	c.Notes = slices.Clone(o.Notes)
	return &c, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status order.Status, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}

	o.Status = status
	if note != "" {
		o.Notes = append(o.Notes, order.Note{Text: note, CreatedAt: time.Now().UTC()})
	}
	return nil
}

func (r *OrderRepository) AddNote(_ context.Context, id string, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}

	o.Notes = append(o.Notes, order.Note{Text: note, CreatedAt: time.Now().UTC()})
	return nil
}
