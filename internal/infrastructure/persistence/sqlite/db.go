package sqlite

import (
	"database/sql"
	"fmt"
)

// Open connects using a registered database/sql driver ("sqlite3" for
// mattn/go-sqlite3, "sqlite" for modernc.org/sqlite). The pool is limited to
// one connection, so writers are serialized by the pool.
func Open(driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
