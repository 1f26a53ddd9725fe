package metrics

import "sync/atomic"

type Counters struct {
	SessionsCreated   uint64
	CheckoutFailures  uint64
	WebhooksReceived  uint64
	WebhooksDiscarded uint64
	PaymentsPaid      uint64
	PaymentsFailed    uint64
	SessionsExpired   uint64
}

func (c *Counters) IncSessionsCreated() {
	atomic.AddUint64(&c.SessionsCreated, 1)
}

func (c *Counters) IncCheckoutFailures() {
	atomic.AddUint64(&c.CheckoutFailures, 1)
}

func (c *Counters) IncWebhooksReceived() {
	atomic.AddUint64(&c.WebhooksReceived, 1)
}

func (c *Counters) IncWebhooksDiscarded() {
	atomic.AddUint64(&c.WebhooksDiscarded, 1)
}

func (c *Counters) IncPaid() {
	atomic.AddUint64(&c.PaymentsPaid, 1)
}

func (c *Counters) IncFailed() {
	atomic.AddUint64(&c.PaymentsFailed, 1)
}

func (c *Counters) IncExpired() {
	atomic.AddUint64(&c.SessionsExpired, 1)
}

func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"sessions_created":   atomic.LoadUint64(&c.SessionsCreated),
		"checkout_failures":  atomic.LoadUint64(&c.CheckoutFailures),
		"webhooks_received":  atomic.LoadUint64(&c.WebhooksReceived),
		"webhooks_discarded": atomic.LoadUint64(&c.WebhooksDiscarded),
		"payments_paid":      atomic.LoadUint64(&c.PaymentsPaid),
		"payments_failed":    atomic.LoadUint64(&c.PaymentsFailed),
		"sessions_expired":   atomic.LoadUint64(&c.SessionsExpired),
	}
}
