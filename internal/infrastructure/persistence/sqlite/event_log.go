package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
)

type EventLog struct {
	db *sql.DB
}

func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

func (l *EventLog) Append(ctx context.Context, evt session.ReconciliationEvent) (bool, error) {
	var eventID sql.NullString
	if evt.EventID != "" {
		eventID = sql.NullString{String: evt.EventID, Valid: true}
	}

	receivedAt := evt.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reconciliation_events
		 (event_id, event, session_id, reported_status, signature, received_at, raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		eventID,
		evt.Event,
		evt.SessionID,
		evt.ReportedStatus,
		evt.Signature,
		toMillis(receivedAt),
		evt.Raw,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// 0 rows = duplicate delivery
	return affected == 1, nil
}

func (l *EventLog) ListBySession(ctx context.Context, sessionID string) ([]session.ReconciliationEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT event_id, event, session_id, reported_status, signature, received_at, raw
		 FROM reconciliation_events
		 WHERE session_id = ?
		 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []session.ReconciliationEvent
	for rows.Next() {
		var (
			evt     session.ReconciliationEvent
			eventID sql.NullString
			ms      int64
		)
		if err := rows.Scan(
			&eventID,
			&evt.Event,
			&evt.SessionID,
			&evt.ReportedStatus,
			&evt.Signature,
			&ms,
			&evt.Raw,
		); err != nil {
			return nil, err
		}
		evt.EventID = eventID.String
		evt.ReceivedAt = fromMillis(ms)
		events = append(events, evt)
	}

	return events, rows.Err()
}
