package session

import "time"

// ReconciliationEvent is a payment-status notification pushed by the provider.
// Signature is stored as received; it is not verified.
type ReconciliationEvent struct {
	EventID        string
	Event          string
	SessionID      string
	ReportedStatus string
	Signature      string
	ReceivedAt     time.Time
	Raw            []byte
}

const ReportedPaid = "PAID"
