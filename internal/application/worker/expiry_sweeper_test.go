package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/pixgate/internal/application/worker"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/persistence/inmemory"
)

type fakeRecorder struct {
	recordFn func(event.Event) error
}

func (f *fakeRecorder) Record(_ context.Context, evt event.Event) error {
	return f.recordFn(evt)
}

type noopLogger struct{}

func (n *noopLogger) Info(string, map[string]any)  {}
func (n *noopLogger) Warn(string, map[string]any)  {}
func (n *noopLogger) Error(string, map[string]any) {}

func seed(t *testing.T, sessions session.Repository, orders order.Repository, id string, status session.Status, expiresAt time.Time) {
	ctx := context.Background()
	orderID := "order-" + id
	require.NoError(t, orders.Save(ctx, &order.Order{ID: orderID, Status: order.StatusOnHold}))
	require.NoError(t, sessions.Save(ctx, &session.Session{
		ID:        id,
		OrderID:   orderID,
		Status:    status,
		ExpiresAt: &expiresAt,
	}))
}

func TestExpirySweeper_ShouldExpireOverdueSessionsOnly(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	sessions := inmemory.NewSessionRepository()
	orders := inmemory.NewOrderRepository()
	seed(t, sessions, orders, "S1", session.StatusAwaitingPayment, now.Add(-time.Minute))
	seed(t, sessions, orders, "S2", session.StatusAwaitingPayment, now.Add(time.Minute))
	seed(t, sessions, orders, "S3", session.StatusPaid, now.Add(-time.Hour))

	recorded := []event.Event{}
	m := &metrics.Counters{}
	sweeper := &worker.ExpirySweeper{
		Sessions: sessions,
		Orders:   orders,
		Recorder: &fakeRecorder{recordFn: func(evt event.Event) error {
			recorded = append(recorded, evt)
			return nil
		}},
		Logger:    &noopLogger{},
		Metrics:   m,
		BatchSize: 10,
		Now:       func() time.Time { return now },
	}

	require.Equal(t, 1, sweeper.SweepOnce(ctx))

	s1, err := sessions.FindByID(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, session.StatusExpired, s1.Status)

	ord, err := orders.FindByID(ctx, "order-S1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCancelled, ord.Status)
	require.Equal(t, "PIX QRCode expired.", ord.Notes[0].Text)

	s2, err := sessions.FindByID(ctx, "S2")
	require.NoError(t, err)
	require.Equal(t, session.StatusAwaitingPayment, s2.Status)

	ord3, err := orders.FindByID(ctx, "order-S3")
	require.NoError(t, err)
	require.Equal(t, order.StatusOnHold, ord3.Status)

	require.Len(t, recorded, 1)
	require.Equal(t, event.SessionExpired, recorded[0].Type)
	require.Equal(t, uint64(1), m.SessionsExpired)

	require.Zero(t, sweeper.SweepOnce(ctx))
	require.Len(t, recorded, 1)
}

func TestExpirySweeper_Run_ShouldStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sessions := inmemory.NewSessionRepository()
	orders := inmemory.NewOrderRepository()
	seed(t, sessions, orders, "S1", session.StatusCreated, time.Now().Add(-time.Second))

	sweeper := &worker.ExpirySweeper{
		Sessions: sessions,
		Orders:   orders,
		Logger:   &noopLogger{},
		Interval: 5 * time.Millisecond,
	}

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		s, err := sessions.FindByID(context.Background(), "S1")
		return err == nil && s.Status == session.StatusExpired
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
