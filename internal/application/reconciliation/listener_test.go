package reconciliation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/pixgate/internal/application/reconciliation"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/persistence/inmemory"
)

type fakeRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (f *fakeRecorder) Record(_ context.Context, evt event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, msg: msg})
}

func (r *recordingLogger) Info(msg string, _ map[string]any)  { r.add("info", msg) }
func (r *recordingLogger) Warn(msg string, _ map[string]any)  { r.add("warn", msg) }
func (r *recordingLogger) Error(msg string, _ map[string]any) { r.add("error", msg) }

func (r *recordingLogger) count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type fixture struct {
	listener *reconciliation.Listener
	sessions *inmemory.SessionRepository
	events   *inmemory.EventLog
	orders   *inmemory.OrderRepository
	recorder *fakeRecorder
	logger   *recordingLogger
	metrics  *metrics.Counters
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	f := &fixture{
		sessions: inmemory.NewSessionRepository(),
		events:   inmemory.NewEventLog(),
		orders:   inmemory.NewOrderRepository(),
		recorder: &fakeRecorder{},
		logger:   &recordingLogger{},
		metrics:  &metrics.Counters{},
	}

	require.NoError(t, f.orders.Save(ctx, &order.Order{
		ID:       "order-1",
		Total:    decimal.RequireFromString("100"),
		Currency: "USD",
		Status:   order.StatusOnHold,
	}))
	require.NoError(t, f.sessions.Save(ctx, &session.Session{
		ID:          "S1",
		OrderID:     "order-1",
		Payload:     "payload",
		AmountMinor: 50000,
		Currency:    "BRL",
		Status:      session.StatusAwaitingPayment,
	}))

	f.listener = &reconciliation.Listener{
		Sessions:        f.sessions,
		EventLog:        f.events,
		Orders:          f.orders,
		Recorder:        f.recorder,
		Logger:          f.logger,
		Metrics:         f.metrics,
		PollMaxAttempts: 2,
		PollInterval:    5 * time.Second,
	}
	return f
}

func TestHandleWebhook_WhenPaid_ShouldCompleteOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","event":"payment.status","signature":"sig","data":{"id":"S1","status":"PAID"}}`))
	require.NoError(t, err)
	require.True(t, out.Applied)
	require.Equal(t, session.StatusPaid, out.Status)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, ord.Status)
	require.Equal(t, "Payment confirmed via IPN.", ord.Notes[len(ord.Notes)-1].Text)

	logged, err := f.events.ListBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Equal(t, "sig", logged[0].Signature)
	require.Equal(t, "PAID", logged[0].ReportedStatus)

	require.Len(t, f.recorder.events, 1)
	require.Equal(t, event.OrderPaid, f.recorder.events[0].Type)
	require.Equal(t, uint64(1), f.metrics.PaymentsPaid)
}

func TestHandleWebhook_WhenNotPaid_ShouldFailOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","data":{"id":"S1","status":"CANCELED"}}`))
	require.NoError(t, err)
	require.Equal(t, session.StatusFailed, out.Status)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusFailed, ord.Status)
	require.Equal(t, "Payment not confirmed via IPN.", ord.Notes[len(ord.Notes)-1].Text)
	require.Equal(t, event.OrderPaymentFailed, f.recorder.events[0].Type)
}

func TestHandleWebhook_WhenPaidTwice_ShouldFulfillOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","data":{"id":"S1","status":"PAID"}}`))
	require.NoError(t, err)
	second, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-2","data":{"id":"S1","status":"PAID"}}`))
	require.NoError(t, err)

	require.True(t, first.Applied)
	require.False(t, second.Applied)
	require.Equal(t, session.StatusPaid, second.Status)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, ord.Status)
	require.Len(t, ord.Notes, 1)
	require.Len(t, f.recorder.events, 1)

	logged, err := f.events.ListBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, logged, 2)
}

func TestHandleWebhook_WhenRedelivered_ShouldAuditOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	body := []byte(`{"id":"evt-1","data":{"id":"S1","status":"PAID"}}`)

	_, err := f.listener.HandleWebhook(ctx, body)
	require.NoError(t, err)
	_, err = f.listener.HandleWebhook(ctx, body)
	require.NoError(t, err)

	logged, err := f.events.ListBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Len(t, f.recorder.events, 1)
}

func TestHandleWebhook_WhenSessionUnknown_ShouldDiscardAndLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","data":{"id":"nope","status":"PAID"}}`))
	require.ErrorIs(t, err, reconciliation.ErrUnknownSession)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusOnHold, ord.Status)

	sess, err := f.sessions.FindByID(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, session.StatusAwaitingPayment, sess.Status)

	require.Empty(t, f.recorder.events)
	require.Equal(t, 1, f.logger.count("error"))
	require.Equal(t, uint64(1), f.metrics.WebhooksDiscarded)
}

func TestHandleWebhook_WhenPayloadMalformed_ShouldReject(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`not json`, `{"id":"evt-1","data":{"status":"PAID"}}`} {
		_, err := f.listener.HandleWebhook(context.Background(), []byte(body))
		require.ErrorIs(t, err, reconciliation.ErrMalformedWebhookPayload, body)
	}
	require.Equal(t, uint64(2), f.metrics.WebhooksReceived)
}

func TestHandleWebhook_WhenSessionSuperseded_ShouldAuditWithoutFulfilling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.sessions.Save(ctx, &session.Session{
		ID:      "S2",
		OrderID: "order-1",
		Status:  session.StatusAwaitingPayment,
	}))

	out, err := f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","data":{"id":"S1","status":"PAID"}}`))
	require.NoError(t, err)
	require.False(t, out.Applied)
	require.Equal(t, session.StatusExpired, out.Status)

	logged, err := f.events.ListBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, logged, 1)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusOnHold, ord.Status)
	require.Equal(t, 1, f.logger.count("warn"))
}

func TestApply_WhenPaidAndFailedRace_ShouldLetOneWin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.sessions.FindByID(ctx, "S1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make([]reconciliation.Outcome, 2)
	for i, status := range []string{"PAID", "FAILED"} {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			out, err := f.listener.Apply(ctx, sess, status)
			assert.NoError(t, err)
			outcomes[i] = out
		}(i, status)
	}
	wg.Wait()

	require.NotEqual(t, outcomes[0].Applied, outcomes[1].Applied)
	winner := outcomes[0]
	if !winner.Applied {
		winner = outcomes[1]
	}
	require.Equal(t, winner.Status, outcomes[0].Status)
	require.Equal(t, winner.Status, outcomes[1].Status)

	stored, err := f.sessions.FindByID(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, winner.Status, stored.Status)

	ord, err := f.orders.FindByID(ctx, "order-1")
	require.NoError(t, err)
	want := order.StatusFailed
	if winner.Status == session.StatusPaid {
		want = order.StatusCompleted
	}
	require.Equal(t, want, ord.Status)
	require.Len(t, f.recorder.events, 1)
}

func TestPollStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.listener.PollStatus(ctx, "order-1", 1, 0)
	require.NoError(t, err)
	require.Equal(t, order.StatusOnHold, res.OrderStatus)
	require.Equal(t, session.StatusAwaitingPayment, res.SessionStatus)
	require.False(t, res.Terminal)
	require.False(t, res.Exhausted)
	require.Equal(t, 5*time.Second, res.RetryAfter)

	res, err = f.listener.PollStatus(ctx, "order-1", 2, 0)
	require.NoError(t, err)
	require.True(t, res.Exhausted)

	res, err = f.listener.PollStatus(ctx, "order-1", 2, 5)
	require.NoError(t, err)
	require.False(t, res.Exhausted)

	_, err = f.listener.HandleWebhook(ctx, []byte(`{"id":"evt-1","data":{"id":"S1","status":"PAID"}}`))
	require.NoError(t, err)

	res, err = f.listener.PollStatus(ctx, "order-1", 9, 2)
	require.NoError(t, err)
	require.True(t, res.Terminal)
	require.False(t, res.Exhausted)
	require.Equal(t, order.StatusCompleted, res.OrderStatus)
	require.Equal(t, session.StatusPaid, res.SessionStatus)
}

func TestPollStatus_WhenOrderUnknown_ShouldReturnNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.listener.PollStatus(context.Background(), "missing", 1, 2)
	require.ErrorIs(t, err, reconciliation.ErrOrderNotFound)
}
