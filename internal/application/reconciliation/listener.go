package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/pixgate/internal/application/contracts"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
)

var (
	ErrMalformedWebhookPayload = errors.New("malformed webhook payload")
	ErrUnknownSession          = errors.New("unknown payment session")
	ErrOrderNotFound           = errors.New("order not found")
)

const (
	notePaid    = "Payment confirmed via IPN."
	noteNotPaid = "Payment not confirmed via IPN."

	defaultPollMaxAttempts = 2
	defaultPollInterval    = 5 * time.Second
)

// Outcome describes what a status report did to a session. Applied is true
// only for the call that moved the session into Status.
type Outcome struct {
	SessionID string
	OrderID   string
	Status    session.Status
	Applied   bool
}

type PollResult struct {
	OrderStatus   order.Status
	SessionStatus session.Status
	Terminal      bool
	Exhausted     bool
	RetryAfter    time.Duration
}

type Listener struct {
	Sessions session.Repository
	EventLog session.EventLog
	Orders   order.Repository
	Recorder contracts.EventRecorder
	Logger   logging.Logger
	Metrics  *metrics.Counters

	PollMaxAttempts int
	PollInterval    time.Duration

	Now func() time.Time
}

type webhookPayload struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Signature string `json:"signature"`
	Data      struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func (l *Listener) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleWebhook parses a provider notification, audits it and applies the
// reported status to the referenced session.
func (l *Listener) HandleWebhook(ctx context.Context, body []byte) (Outcome, error) {
	if l.Metrics != nil {
		l.Metrics.IncWebhooksReceived()
	}

	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		l.discard("webhook payload not decoded", map[string]any{"error": err.Error()})
		return Outcome{}, fmt.Errorf("%w: %v", ErrMalformedWebhookPayload, err)
	}
	if p.Data.ID == "" {
		l.discard("webhook without session id", map[string]any{"event-id": p.ID})
		return Outcome{}, fmt.Errorf("%w: missing data.id", ErrMalformedWebhookPayload)
	}

	sess, err := l.Sessions.FindByID(ctx, p.Data.ID)
	if errors.Is(err, session.ErrSessionNotFound) {
		l.discard("webhook for unknown session", map[string]any{
			"event-id":   p.ID,
			"session-id": p.Data.ID,
			"status":     p.Data.Status,
		})
		return Outcome{SessionID: p.Data.ID}, fmt.Errorf("%w: %s", ErrUnknownSession, p.Data.ID)
	}
	if err != nil {
		return Outcome{}, err
	}

	eventID := p.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	inserted, err := l.EventLog.Append(ctx, session.ReconciliationEvent{
		EventID:        eventID,
		Event:          p.Event,
		SessionID:      sess.ID,
		ReportedStatus: p.Data.Status,
		Signature:      p.Signature,
		ReceivedAt:     l.now(),
		Raw:            body,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("auditing webhook: %w", err)
	}
	if !inserted {
		l.Logger.Info("duplicate webhook delivery", map[string]any{
			"event-id":   eventID,
			"session-id": sess.ID,
		})
	}

	if !sess.Current {
		l.Logger.Warn("webhook for superseded session", map[string]any{
			"event-id":   eventID,
			"session-id": sess.ID,
			"order-id":   sess.OrderID,
			"status":     p.Data.Status,
		})
	}

	return l.Apply(ctx, sess, p.Data.Status)
}

// Apply moves sess to the terminal status matching reportedStatus. Only the
// caller that wins the transition updates the order and records the event.
func (l *Listener) Apply(ctx context.Context, sess *session.Session, reportedStatus string) (Outcome, error) {
	to, orderStatus, note := session.StatusFailed, order.StatusFailed, noteNotPaid
	if reportedStatus == session.ReportedPaid {
		to, orderStatus, note = session.StatusPaid, order.StatusCompleted, notePaid
	}

	out := Outcome{SessionID: sess.ID, OrderID: sess.OrderID, Status: to}

	moved, err := l.Sessions.Transition(ctx, sess.ID, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("transitioning session %s: %w", sess.ID, err)
	}

	if !moved {
		if cur, err := l.Sessions.FindByID(ctx, sess.ID); err == nil {
			out.Status = cur.Status
		}
		l.Logger.Info("session already settled", map[string]any{
			"session-id": sess.ID,
			"status":     out.Status,
			"reported":   reportedStatus,
		})
		return out, nil
	}

	out.Applied = true

	if err := l.Orders.UpdateStatus(ctx, sess.OrderID, orderStatus, note); err != nil {
		l.Logger.Error("order not updated after settlement", map[string]any{
			"order-id":   sess.OrderID,
			"session-id": sess.ID,
			"error":      err.Error(),
		})
		return out, fmt.Errorf("updating order %s: %w", sess.OrderID, err)
	}

	var evt event.Event
	if to == session.StatusPaid {
		evt = event.New(event.OrderPaid, event.OrderPaidPayload{
			OrderID:   sess.OrderID,
			SessionID: sess.ID,
		})
		if l.Metrics != nil {
			l.Metrics.IncPaid()
		}
	} else {
		evt = event.New(event.OrderPaymentFailed, event.OrderPaymentFailedPayload{
			OrderID:        sess.OrderID,
			SessionID:      sess.ID,
			ReportedStatus: reportedStatus,
		})
		if l.Metrics != nil {
			l.Metrics.IncFailed()
		}
	}

	if l.Recorder != nil {
		if err := l.Recorder.Record(ctx, evt); err != nil {
			l.Logger.Error("settlement event not recorded", map[string]any{
				"session-id": sess.ID,
				"event-type": evt.Type,
				"error":      err.Error(),
			})
		}
	}

	l.Logger.Info("payment session settled", map[string]any{
		"order-id":   sess.OrderID,
		"session-id": sess.ID,
		"status":     to,
	})

	return out, nil
}

// PollStatus reports where an order stands. It only reads local state.
func (l *Listener) PollStatus(ctx context.Context, orderID string, attempt, maxAttempts int) (PollResult, error) {
	ord, err := l.Orders.FindByID(ctx, orderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		return PollResult{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return PollResult{}, err
	}

	res := PollResult{
		OrderStatus: ord.Status,
		RetryAfter:  l.PollInterval,
	}
	if res.RetryAfter <= 0 {
		res.RetryAfter = defaultPollInterval
	}

	sess, err := l.Sessions.FindCurrentByOrderID(ctx, orderID)
	switch {
	case err == nil:
		res.SessionStatus = sess.Status
	case !errors.Is(err, session.ErrSessionNotFound):
		return PollResult{}, err
	}

	res.Terminal = res.SessionStatus.Terminal() || orderSettled(ord.Status)

	if maxAttempts <= 0 {
		maxAttempts = l.PollMaxAttempts
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultPollMaxAttempts
	}
	res.Exhausted = !res.Terminal && attempt >= maxAttempts

	return res, nil
}

func orderSettled(s order.Status) bool {
	switch s {
	case order.StatusCompleted, order.StatusFailed, order.StatusCancelled:
		return true
	}
	return false
}

func (l *Listener) discard(msg string, fields map[string]any) {
	if l.Metrics != nil {
		l.Metrics.IncWebhooksDiscarded()
	}
	l.Logger.Error(msg, fields)
}
