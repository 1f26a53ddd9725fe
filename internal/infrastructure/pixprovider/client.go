package pixprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rcarvalho-pb/pixgate/internal/application/checkout"
)

const chargePath = "/core/v1/pix-qrcode-payments"

// maxBodySize bounds how much of a provider response is read and kept.
const maxBodySize = 1 << 20

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

var _ checkout.Provider = (*Client)(nil)

type chargeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Payload   string `json:"payload"`
	ExpiresAt string `json:"expiresAt"`
}

func (c *Client) CreateCharge(ctx context.Context, cred checkout.Credential, req checkout.ChargeRequest) (*checkout.Charge, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %w", checkout.ErrProviderUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+chargePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", checkout.ErrProviderUnavailable, err)
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+cred.Token)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", checkout.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", checkout.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", checkout.ErrProviderUnavailable, resp.StatusCode, truncate(raw, 256))
	}

	var parsed chargeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", checkout.ErrMalformedProviderResponse, err)
	}

	charge := &checkout.Charge{
		ID:      parsed.ID,
		Code:    parsed.Code,
		Amount:  parsed.Amount,
		Status:  parsed.Status,
		Payload: parsed.Payload,
		Raw:     raw,
	}

	if parsed.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, parsed.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: expiresAt: %v", checkout.ErrMalformedProviderResponse, err)
		}
		t = t.UTC()
		charge.ExpiresAt = &t
	}

	return charge, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
