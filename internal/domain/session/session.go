package session

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("amount must not be negative")

type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusFailed          Status = "FAILED"
	StatusExpired         Status = "EXPIRED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Sources lists the statuses a session may be in for a move to s to be valid.
func (s Status) Sources() []Status {
	switch s {
	case StatusAwaitingPayment:
		return []Status{StatusCreated}
	case StatusPaid, StatusFailed, StatusExpired:
		return []Status{StatusCreated, StatusAwaitingPayment}
	}
	return nil
}

func CanTransition(from, to Status) bool {
	for _, src := range to.Sources() {
		if src == from {
			return true
		}
	}
	return false
}

type Session struct {
	ID             string
	OrderID        string
	Code           string
	Payload        string
	AmountMinor    int64
	Currency       string
	Status         Status
	ProviderStatus string
	ExpiresAt      *time.Time
	RawResponse    []byte
	Current        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// ToMinorUnits converts a resolved amount into cents, rounding down.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return amount.Shift(2).Floor().IntPart(), nil
}
