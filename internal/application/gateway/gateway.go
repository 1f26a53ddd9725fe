package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcarvalho-pb/pixgate/internal/application/amount"
	"github.com/rcarvalho-pb/pixgate/internal/application/checkout"
	"github.com/rcarvalho-pb/pixgate/internal/application/reconciliation"
	"github.com/rcarvalho-pb/pixgate/internal/domain/currency"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
)

// PaymentGateway is the PIX QR code payment method as seen by the store.
type PaymentGateway interface {
	Checkout(ctx context.Context, orderID string) (*session.Session, error)
	HandleWebhook(ctx context.Context, body []byte) (reconciliation.Outcome, error)
	PollStatus(ctx context.Context, orderID string, attempt, maxAttempts int) (reconciliation.PollResult, error)
}

type Settings struct {
	Credential checkout.Credential
	Amount     amount.Config

	StoreCurrency      string
	SettlementCurrency string
	// SettlementFromCountry derives the settlement currency from the payer's
	// billing country, falling back to SettlementCurrency.
	SettlementFromCountry bool
}

type Gateway struct {
	Settings  Settings
	Orders    order.Repository
	Resolver  *amount.Resolver
	Initiator *checkout.Initiator
	Listener  *reconciliation.Listener
	Logger    logging.Logger
	Metrics   *metrics.Counters
}

var _ PaymentGateway = (*Gateway)(nil)

// Checkout prices the order in the settlement currency and opens a PIX
// payment session for it.
func (g *Gateway) Checkout(ctx context.Context, orderID string) (*session.Session, error) {
	ord, err := g.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ord.Status.Payable() {
		g.Logger.Warn("checkout rejected", map[string]any{
			"order-id": ord.ID,
			"status":   string(ord.Status),
		})
		return nil, fmt.Errorf("%w: order %s is %s", order.ErrOrderNotPayable, ord.ID, ord.Status)
	}

	sess, err := g.checkout(ctx, ord)
	if err != nil {
		if g.Metrics != nil {
			g.Metrics.IncCheckoutFailures()
		}
		g.Logger.Error("checkout failed", map[string]any{
			"order-id": ord.ID,
			"error":    err.Error(),
		})
		return nil, err
	}
	return sess, nil
}

func (g *Gateway) checkout(ctx context.Context, ord *order.Order) (*session.Session, error) {
	source := ord.Currency
	if source == "" {
		source = g.Settings.StoreCurrency
	}
	target := g.SettlementCurrency(ord.Billing.Country)

	cfg := g.Settings.Amount
	if cfg.ManualRateCurrency == "" {
		cfg.ManualRateCurrency = strings.ToUpper(g.Settings.SettlementCurrency)
	}

	resolved, err := g.Resolver.Resolve(ctx, ord.Total, source, target, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving amount: %w", err)
	}

	minor, err := session.ToMinorUnits(resolved)
	if err != nil {
		return nil, err
	}

	return g.Initiator.Initiate(ctx, ord, checkout.Amount{Minor: minor, Currency: target}, g.Settings.Credential)
}

// SettlementCurrency returns the currency a payer from country is charged in.
func (g *Gateway) SettlementCurrency(country string) string {
	fallback := strings.ToUpper(g.Settings.SettlementCurrency)
	if !g.Settings.SettlementFromCountry {
		return fallback
	}
	if code, ok := currency.ForCountry(country); ok {
		return code
	}
	return fallback
}

func (g *Gateway) HandleWebhook(ctx context.Context, body []byte) (reconciliation.Outcome, error) {
	return g.Listener.HandleWebhook(ctx, body)
}

func (g *Gateway) PollStatus(ctx context.Context, orderID string, attempt, maxAttempts int) (reconciliation.PollResult, error) {
	return g.Listener.PollStatus(ctx, orderID, attempt, maxAttempts)
}
