package order

import (
	"context"
	"errors"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderExists     = errors.New("order already exists")
	ErrOrderNotPayable = errors.New("order is not awaiting payment")
)

type Repository interface {
	// Create inserts o and fails with ErrOrderExists when the id is taken.
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus sets the status and, when note is not empty, appends it.
	UpdateStatus(ctx context.Context, id string, status Status, note string) error
	AddNote(ctx context.Context, id string, note string) error
}

type Cart interface {
	Empty(ctx context.Context, customerID string) error
}
