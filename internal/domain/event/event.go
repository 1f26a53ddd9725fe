package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	SessionCreated     Type = "SESSION_CREATED"
	OrderPaid          Type = "ORDER_PAID"
	OrderPaymentFailed Type = "ORDER_PAYMENT_FAILED"
	SessionExpired     Type = "SESSION_EXPIRED"
)

type Event struct {
	ID         string
	Type       Type
	OccurredAt time.Time
	Payload    any
}

func New(t Type, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
