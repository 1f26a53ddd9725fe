package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
)

type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

const sessionColumns = `id, order_id, code, payload, amount_minor, currency, status,
	provider_status, expires_at, raw_response, is_current, created_at, updated_at`

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := toMillis(r.now())

	// supersede the previous current session of this order
	if _, err := tx.ExecContext(ctx,
		`UPDATE payment_sessions
		 SET is_current = 0,
		     status = CASE WHEN status IN (?, ?) THEN ? ELSE status END,
		     updated_at = ?
		 WHERE order_id = ? AND is_current = 1 AND id <> ?`,
		string(session.StatusCreated),
		string(session.StatusAwaitingPayment),
		string(session.StatusExpired),
		now,
		s.OrderID,
		s.ID,
	); err != nil {
		return err
	}

	created := now
	if !s.CreatedAt.IsZero() {
		created = toMillis(s.CreatedAt)
	}

	var expiresAt sql.NullInt64
	if s.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: toMillis(*s.ExpiresAt), Valid: true}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payment_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     payload = excluded.payload,
		     code = excluded.code,
		     amount_minor = excluded.amount_minor,
		     currency = excluded.currency,
		     provider_status = excluded.provider_status,
		     expires_at = excluded.expires_at,
		     raw_response = excluded.raw_response,
		     is_current = 1,
		     updated_at = excluded.updated_at`,
		s.ID,
		s.OrderID,
		s.Code,
		s.Payload,
		s.AmountMinor,
		s.Currency,
		string(s.Status),
		s.ProviderStatus,
		expiresAt,
		s.RawResponse,
		created,
		now,
	); err != nil {
		return err
	}

	// a known id keeps its owner, status and creation time
	var status string
	if err := tx.QueryRowContext(ctx,
		`SELECT order_id, status, created_at FROM payment_sessions WHERE id = ?`,
		s.ID,
	).Scan(&s.OrderID, &status, &created); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.Status = session.Status(status)
	s.Current = true
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(now)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var (
		s         session.Session
		status    string
		expiresAt sql.NullInt64
		current   int
		created   int64
		updated   int64
	)

	if err := row.Scan(
		&s.ID,
		&s.OrderID,
		&s.Code,
		&s.Payload,
		&s.AmountMinor,
		&s.Currency,
		&status,
		&s.ProviderStatus,
		&expiresAt,
		&s.RawResponse,
		&current,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}

	s.Status = session.Status(status)
	s.Current = current == 1
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	if expiresAt.Valid {
		t := fromMillis(expiresAt.Int64)
		s.ExpiresAt = &t
	}
	return &s, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM payment_sessions WHERE id = ?`,
		id,
	)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrSessionNotFound
	}
	return s, err
}

func (r *SessionRepository) FindCurrentByOrderID(ctx context.Context, orderID string) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM payment_sessions
		 WHERE order_id = ? AND is_current = 1`,
		orderID,
	)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrSessionNotFound
	}
	return s, err
}

// Transition is a single conditional UPDATE, so concurrent callers racing on
// the same session see exactly one winner.
func (r *SessionRepository) Transition(ctx context.Context, id string, to session.Status) (bool, error) {
	sources := to.Sources()
	if len(sources) == 0 {
		return false, nil
	}

	args := []any{string(to), toMillis(r.now()), id}
	for _, src := range sources {
		args = append(args, string(src))
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_sessions
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+placeholders(len(sources))+`)`,
		args...,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}

	// 0 rows: either unknown id or a status that does not allow the move
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM payment_sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, session.ErrSessionNotFound
	}
	return false, err
}

func (r *SessionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM payment_sessions
		 WHERE is_current = 1
		   AND status IN (?, ?)
		   AND expires_at IS NOT NULL
		   AND expires_at <= ?
		 ORDER BY expires_at
		 LIMIT ?`,
		string(session.StatusCreated),
		string(session.StatusAwaitingPayment),
		toMillis(now),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
