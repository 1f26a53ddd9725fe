package event

type SessionCreatedPayload struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type OrderPaidPayload struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	EventID   string `json:"event_id,omitempty"`
}

type OrderPaymentFailedPayload struct {
	OrderID        string `json:"order_id"`
	SessionID      string `json:"session_id"`
	ReportedStatus string `json:"reported_status"`
}

type SessionExpiredPayload struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
}
