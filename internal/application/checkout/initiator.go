package checkout

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rcarvalho-pb/pixgate/internal/application/contracts"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
)

const (
	noteAwaitingPayment  = "Awaiting PIX payment."
	notePayloadGenerated = "PIX QRCode payload generated."
)

// Amount is a charge already expressed in minor units of Currency.
type Amount struct {
	Minor    int64
	Currency string
}

type Initiator struct {
	Provider Provider
	Sessions session.Repository
	Orders   order.Repository
	Cart     order.Cart
	Recorder contracts.EventRecorder
	Logger   logging.Logger
	Metrics  *metrics.Counters
}

// Initiate charges ord through the provider and records the resulting
// session. The session is persisted before the order leaves its current
// status; when the provider call fails nothing is written.
func (i *Initiator) Initiate(ctx context.Context, ord *order.Order, amt Amount, cred Credential) (*session.Session, error) {
	if amt.Minor < 0 {
		return nil, session.ErrNegativeAmount
	}

	taxID, err := NormalizeTaxID(ord.Billing.TaxID)
	if err != nil {
		return nil, err
	}

	req := ChargeRequest{
		Payer: Payer{
			Name:  ord.Billing.FullName(),
			TaxID: taxID,
		},
		Amount: amt.Minor,
	}

	charge, err := i.Provider.CreateCharge(ctx, cred, req)
	if err != nil {
		i.Logger.Error("pix charge failed", map[string]any{
			"order-id": ord.ID,
			"amount":   amt.Minor,
			"error":    err.Error(),
		})
		return nil, err
	}
	if charge.Payload == "" || charge.ID == "" {
		i.Logger.Error("pix charge without payload", map[string]any{
			"order-id": ord.ID,
			"response": string(charge.Raw),
		})
		return nil, fmt.Errorf("%w: missing id or payload", ErrMalformedProviderResponse)
	}

	sess := &session.Session{
		ID:             charge.ID,
		OrderID:        ord.ID,
		Code:           charge.Code,
		Payload:        charge.Payload,
		AmountMinor:    amt.Minor,
		Currency:       amt.Currency,
		Status:         session.StatusCreated,
		ProviderStatus: charge.Status,
		ExpiresAt:      charge.ExpiresAt,
		RawResponse:    charge.Raw,
	}

	if err := i.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving payment session: %w", err)
	}
	if sess.Status.Terminal() {
		i.Logger.Error("pix charge reused a closed session", map[string]any{
			"order-id":   ord.ID,
			"session-id": sess.ID,
			"status":     string(sess.Status),
		})
		return nil, fmt.Errorf("%w: %s is %s", ErrSessionClosed, sess.ID, sess.Status)
	}

	if err := i.Orders.UpdateStatus(ctx, ord.ID, order.StatusOnHold, noteAwaitingPayment); err != nil {
		return sess, fmt.Errorf("holding order: %w", err)
	}

	moved, err := i.Sessions.Transition(ctx, sess.ID, session.StatusAwaitingPayment)
	if err != nil {
		return sess, fmt.Errorf("opening payment session: %w", err)
	}
	if moved {
		sess.Status = session.StatusAwaitingPayment
	}

	if err := i.Cart.Empty(ctx, ord.CustomerID); err != nil {
		i.Logger.Warn("cart not emptied", map[string]any{
			"order-id":    ord.ID,
			"customer-id": ord.CustomerID,
			"error":       err.Error(),
		})
	}

	if err := i.Orders.AddNote(ctx, ord.ID, notePayloadGenerated); err != nil {
		i.Logger.Warn("order note not added", map[string]any{
			"order-id": ord.ID,
			"error":    err.Error(),
		})
	}

	if i.Recorder != nil {
		if err := i.Recorder.Record(ctx, event.New(event.SessionCreated, event.SessionCreatedPayload{
			OrderID:     ord.ID,
			SessionID:   sess.ID,
			AmountMinor: sess.AmountMinor,
			Currency:    sess.Currency,
		})); err != nil {
			i.Logger.Error("session event not recorded", map[string]any{
				"session-id": sess.ID,
				"error":      err.Error(),
			})
		}
	}

	if i.Metrics != nil {
		i.Metrics.IncSessionsCreated()
	}

	i.Logger.Info("payment session created", map[string]any{
		"order-id":   ord.ID,
		"session-id": sess.ID,
		"amount":     sess.AmountMinor,
		"currency":   sess.Currency,
	})

	return sess, nil
}

// NormalizeTaxID strips formatting from a CPF or CNPJ.
func NormalizeTaxID(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		if r == '.' || r == '-' || r == '/' || unicode.IsSpace(r) {
			return -1
		}
		return 'x'
	}, raw)

	if strings.ContainsRune(digits, 'x') || (len(digits) != 11 && len(digits) != 14) {
		return "", ErrInvalidPayerTaxID
	}
	return digits, nil
}
