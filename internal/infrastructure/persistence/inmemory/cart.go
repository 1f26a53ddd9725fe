package inmemory

import (
	"context"
	"sync"
)

// Cart keeps item quantities per customer.
type Cart struct {
	mu    sync.Mutex
	items map[string]map[string]int
}

func NewCart() *Cart {
	return &Cart{
		items: make(map[string]map[string]int),
	}
}

func (c *Cart) Add(customerID, sku string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items[customerID] == nil {
		c.items[customerID] = make(map[string]int)
	}
	c.items[customerID][sku] += qty
}

func (c *Cart) Items(customerID string) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.items[customerID]))
	for k, v := range c.items[customerID] {
		out[k] = v
	}
	return out
}

func (c *Cart) Empty(_ context.Context, customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, customerID)
	return nil
}
