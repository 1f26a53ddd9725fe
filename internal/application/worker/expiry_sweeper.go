package worker

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/application/contracts"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
)

const noteExpired = "PIX QRCode expired."

// ExpirySweeper closes payment sessions whose QR code expired before the
// provider reported a result.
type ExpirySweeper struct {
	Sessions  session.Repository
	Orders    order.Repository
	Recorder  contracts.EventRecorder
	Logger    logging.Logger
	Metrics   *metrics.Counters
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires one batch of overdue sessions and returns how many it
// moved. Sessions settled concurrently by a webhook are left alone.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) int {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	overdue, err := s.Sessions.FindExpired(ctx, now, s.BatchSize)
	if err != nil {
		s.Logger.Error("expired sessions lookup failed", map[string]any{"error": err.Error()})
		return 0
	}

	expired := 0
	for _, sess := range overdue {
		moved, err := s.Sessions.Transition(ctx, sess.ID, session.StatusExpired)
		if err != nil {
			s.Logger.Error("session not expired", map[string]any{
				"session-id": sess.ID,
				"error":      err.Error(),
			})
			continue
		}
		if !moved {
			continue
		}
		expired++

		if err := s.Orders.UpdateStatus(ctx, sess.OrderID, order.StatusCancelled, noteExpired); err != nil {
			s.Logger.Error("order not cancelled after expiry", map[string]any{
				"order-id":   sess.OrderID,
				"session-id": sess.ID,
				"error":      err.Error(),
			})
		}

		if s.Recorder != nil {
			if err := s.Recorder.Record(ctx, event.New(event.SessionExpired, event.SessionExpiredPayload{
				OrderID:   sess.OrderID,
				SessionID: sess.ID,
			})); err != nil {
				s.Logger.Error("expiry event not recorded", map[string]any{
					"session-id": sess.ID,
					"error":      err.Error(),
				})
			}
		}

		if s.Metrics != nil {
			s.Metrics.IncExpired()
		}

		s.Logger.Info("payment session expired", map[string]any{
			"order-id":   sess.OrderID,
			"session-id": sess.ID,
		})
	}

	return expired
}
