package amount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrRateUnavailable   = errors.New("exchange rate unavailable")
	ErrRateProviderError = errors.New("exchange rate provider error")
	ErrInvalidManualRate = errors.New("manual exchange rate must be a positive number")
	ErrNegativeAmount    = errors.New("amount must not be negative")
)

// RateProvider returns the spot rate of a currency against the provider's
// USD base.
type RateProvider interface {
	Rate(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Config struct {
	ConversionEnabled bool
	ManualRate        decimal.Decimal
	// ManualRateCurrency is the currency ManualRate converts into. When set,
	// a manual conversion into any other currency is refused.
	ManualRateCurrency string
}

type Resolver struct {
	Rates RateProvider
}

// Resolve converts amount from source into target currency. The result is not
// rounded; converting to minor units is left to the caller.
func (r *Resolver) Resolve(ctx context.Context, amount decimal.Decimal, source, target string, cfg Config) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}

	source = strings.ToUpper(source)
	target = strings.ToUpper(target)

	if source == target {
		return amount, nil
	}

	if !cfg.ConversionEnabled {
		if !cfg.ManualRate.IsPositive() {
			return decimal.Zero, ErrInvalidManualRate
		}
		if rateCurrency := strings.ToUpper(cfg.ManualRateCurrency); rateCurrency != "" && rateCurrency != target {
			return decimal.Zero, fmt.Errorf("%w: rate converts into %s, not %s", ErrInvalidManualRate, rateCurrency, target)
		}
		return amount.Mul(cfg.ManualRate), nil
	}
	if r.Rates == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate provider configured", ErrRateProviderError)
	}

	var sourceRate, targetRate decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rate, err := r.lookup(gctx, source)
		sourceRate = rate
		return err
	})
	g.Go(func() error {
		rate, err := r.lookup(gctx, target)
		targetRate = rate
		return err
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	return amount.Div(sourceRate).Mul(targetRate), nil
}

func (r *Resolver) lookup(ctx context.Context, symbol string) (decimal.Decimal, error) {
	rate, err := r.Rates.Rate(ctx, symbol)
	if err != nil {
		if errors.Is(err, ErrRateUnavailable) || errors.Is(err, ErrRateProviderError) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrRateProviderError, symbol, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, symbol)
	}
	return rate, nil
}
