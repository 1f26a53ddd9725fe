package checkout

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProviderUnavailable       = errors.New("payment provider unavailable")
	ErrMalformedProviderResponse = errors.New("malformed payment provider response")
	ErrInvalidPayerTaxID         = errors.New("payer tax id must have 11 (CPF) or 14 (CNPJ) digits")
	ErrSessionClosed             = errors.New("provider returned an already closed payment session")
)

type Credential struct {
	Token string
}

type Payer struct {
	Name  string `json:"name"`
	TaxID string `json:"taxId"`
}

type ChargeRequest struct {
	Payer  Payer `json:"payer"`
	Amount int64 `json:"amount"`
}

type Charge struct {
	ID        string
	Code      string
	Amount    int64
	Status    string
	Payload   string
	ExpiresAt *time.Time
	Raw       []byte
}

// Provider creates PIX QR code charges. Implementations wrap transport
// failures in ErrProviderUnavailable and undecodable bodies in
// ErrMalformedProviderResponse.
type Provider interface {
	CreateCharge(ctx context.Context, cred Credential, req ChargeRequest) (*Charge, error)
}
