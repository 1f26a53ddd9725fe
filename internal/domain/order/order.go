package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusOnHold    Status = "on-hold"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Payable reports whether a checkout may open a payment session for an order
// in this status. An on-hold order is still awaiting its PIX payment, so a
// new checkout supersedes the open session.
func (s Status) Payable() bool {
	switch s {
	case StatusPending, StatusOnHold, StatusFailed:
		return true
	}
	return false
}

type Billing struct {
	FirstName string
	LastName  string
	Email     string
	Country   string
	TaxID     string
}

func (b Billing) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

type Note struct {
	Text      string
	CreatedAt time.Time
}

type Order struct {
	ID         string
	CustomerID string
	Total      decimal.Decimal
	Currency   string
	Billing    Billing
	Status     Status
	Notes      []Note
}
