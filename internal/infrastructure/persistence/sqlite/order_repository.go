package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, total, currency,
		     billing_first_name, billing_last_name, billing_email,
		     billing_country, billing_tax_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		o.ID,
		o.CustomerID,
		o.Total.String(),
		o.Currency,
		o.Billing.FirstName,
		o.Billing.LastName,
		o.Billing.Email,
		o.Billing.Country,
		o.Billing.TaxID,
		string(o.Status),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrOrderExists
	}
	return nil
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, total, currency,
		     billing_first_name, billing_last_name, billing_email,
		     billing_country, billing_tax_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     customer_id = excluded.customer_id,
		     total = excluded.total,
		     currency = excluded.currency,
		     billing_first_name = excluded.billing_first_name,
		     billing_last_name = excluded.billing_last_name,
		     billing_email = excluded.billing_email,
		     billing_country = excluded.billing_country,
		     billing_tax_id = excluded.billing_tax_id,
		     status = excluded.status`,
		o.ID,
		o.CustomerID,
		o.Total.String(),
		o.Currency,
		o.Billing.FirstName,
		o.Billing.LastName,
		o.Billing.Email,
		o.Billing.Country,
		o.Billing.TaxID,
		string(o.Status),
	)
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, total, currency,
		        billing_first_name, billing_last_name, billing_email,
		        billing_country, billing_tax_id, status
		 FROM orders
		 WHERE id = ?`,
		id,
	)

	var (
		o      order.Order
		total  string
		status string
	)

	if err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&total,
		&o.Currency,
		&o.Billing.FirstName,
		&o.Billing.LastName,
		&o.Billing.Email,
		&o.Billing.Country,
		&o.Billing.TaxID,
		&status,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	o.Total = parsed
	o.Status = order.Status(status)

	notes, err := r.notes(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Notes = notes

	return &o, nil
}

func (r *OrderRepository) notes(ctx context.Context, orderID string) ([]order.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT note, created_at FROM order_notes WHERE order_id = ? ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []order.Note
	for rows.Next() {
		var (
			n  order.Note
			ms int64
		)
		if err := rows.Scan(&n.Text, &ms); err != nil {
			return nil, err
		}
		n.CreatedAt = fromMillis(ms)
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, note string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders
		 SET status = ?
		 WHERE id = ?`,
		string(status),
		id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}

	if note != "" {
		if err := insertNote(ctx, tx, id, note); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) AddNote(ctx context.Context, id string, note string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return order.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	return insertNote(ctx, r.db, id, note)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNote(ctx context.Context, db execer, orderID, note string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO order_notes (order_id, note, created_at) VALUES (?, ?, ?)`,
		orderID,
		note,
		toMillis(time.Now()),
	)
	return err
}
