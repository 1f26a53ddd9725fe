package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/pixgate/internal/application/amount"
)

// Client reads spot rates from an Open Exchange Rates compatible endpoint.
// Rates are quoted against USD.
type Client struct {
	URL        string
	AppID      string
	HTTPClient *http.Client
}

func NewClient(rawURL, appID string, timeout time.Duration) *Client {
	return &Client{
		URL:        rawURL,
		AppID:      appID,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

var _ amount.RateProvider = (*Client)(nil)

type latestResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (c *Client) Rate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)

	u, err := url.Parse(c.URL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", amount.ErrRateProviderError, err)
	}
	q := u.Query()
	q.Set("app_id", c.AppID)
	q.Set("symbols", symbol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", amount.ErrRateProviderError, err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", amount.ErrRateProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", amount.ErrRateProviderError, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding rates: %v", amount.ErrRateProviderError, err)
	}

	rate, ok := body.Rates[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", amount.ErrRateUnavailable, symbol)
	}
	return rate, nil
}
