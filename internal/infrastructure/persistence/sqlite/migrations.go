package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			total TEXT NOT NULL,
			currency TEXT NOT NULL,
			billing_first_name TEXT NOT NULL DEFAULT '',
			billing_last_name TEXT NOT NULL DEFAULT '',
			billing_email TEXT NOT NULL DEFAULT '',
			billing_country TEXT NOT NULL DEFAULT '',
			billing_tax_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS order_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL REFERENCES orders(id),
			note TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS cart_items (
			customer_id TEXT NOT NULL,
			sku TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (customer_id, sku)
		);`,

		`CREATE TABLE IF NOT EXISTS payment_sessions (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL,
			amount_minor INTEGER NOT NULL CHECK (amount_minor >= 0),
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			provider_status TEXT NOT NULL DEFAULT '',
			expires_at INTEGER,
			raw_response BLOB,
			is_current INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_payment_sessions_order
			ON payment_sessions (order_id, is_current);`,

		`CREATE TABLE IF NOT EXISTS reconciliation_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT,
			event TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL,
			reported_status TEXT NOT NULL DEFAULT '',
			signature TEXT NOT NULL DEFAULT '',
			received_at INTEGER NOT NULL,
			raw BLOB,
			UNIQUE (event_id)
		);`,

		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
