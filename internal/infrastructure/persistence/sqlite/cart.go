package sqlite

import (
	"context"
	"database/sql"
)

type Cart struct {
	db *sql.DB
}

func NewCart(db *sql.DB) *Cart {
	return &Cart{db: db}
}

func (c *Cart) Add(ctx context.Context, customerID, sku string, qty int) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cart_items (customer_id, sku, quantity)
		 VALUES (?, ?, ?)
		 ON CONFLICT (customer_id, sku) DO UPDATE SET quantity = quantity + excluded.quantity`,
		customerID,
		sku,
		qty,
	)
	return err
}

func (c *Cart) Count(ctx context.Context, customerID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE customer_id = ?`,
		customerID,
	).Scan(&n)
	return n, err
}

func (c *Cart) Empty(ctx context.Context, customerID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id = ?`, customerID)
	return err
}
