package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rcarvalho-pb/pixgate/internal/application/amount"
	"github.com/rcarvalho-pb/pixgate/internal/application/gateway"
	"github.com/rcarvalho-pb/pixgate/internal/application/reconciliation"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
)

const (
	noticeConversion = "Error in currency conversion. Please try again."
	noticeCheckout   = "Error generating PIX QRCode. Please try again."

	maxWebhookBody = 1 << 20
)

type PaymentHandler struct {
	Gateway gateway.PaymentGateway
	Logger  logging.Logger
}

type CheckoutResponse struct {
	Result     string     `json:"result"`
	Message    string     `json:"message,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	PixPayload string     `json:"pix_payload,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type PaymentStatusRequest struct {
	OrderID     string `json:"order_id"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}

type PaymentStatusResponse struct {
	Status        string `json:"status"`
	SessionStatus string `json:"session_status,omitempty"`
	Terminal      bool   `json:"terminal"`
	Exhausted     bool   `json:"exhausted"`
	RetryAfterMS  int64  `json:"retry_after_ms"`
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Gateway.Checkout(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, order.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, CheckoutResponse{Result: "failure", Message: "order not found"})
		return
	}
	if errors.Is(err, order.ErrOrderNotPayable) {
		writeJSON(w, http.StatusConflict, CheckoutResponse{Result: "failure", Message: "order is not awaiting payment"})
		return
	}
	if err != nil {
		notice := noticeCheckout
		if isConversionError(err) {
			notice = noticeConversion
		}
		writeJSON(w, http.StatusUnprocessableEntity, CheckoutResponse{Result: "failure", Message: notice})
		return
	}

	writeJSON(w, http.StatusOK, CheckoutResponse{
		Result:     "success",
		SessionID:  sess.ID,
		PixPayload: sess.Payload,
		Amount:     sess.AmountMinor,
		Currency:   sess.Currency,
		ExpiresAt:  sess.ExpiresAt,
	})
}

func isConversionError(err error) bool {
	return errors.Is(err, amount.ErrRateUnavailable) ||
		errors.Is(err, amount.ErrRateProviderError) ||
		errors.Is(err, amount.ErrInvalidManualRate)
}

// Webhook acknowledges every notification it could read, including ones for
// sessions it does not know, so the provider stops redelivering them.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	_, err = h.Gateway.HandleWebhook(r.Context(), body)
	switch {
	case err == nil, errors.Is(err, reconciliation.ErrUnknownSession):
	case errors.Is(err, reconciliation.ErrMalformedWebhookPayload):
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	default:
		h.Logger.Error("webhook not processed", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

func (h *PaymentHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStatusRequest(r)
	if err != nil || req.OrderID == "" {
		http.Error(w, "order_id is required", http.StatusBadRequest)
		return
	}

	res, err := h.Gateway.PollStatus(r.Context(), req.OrderID, req.Attempt, req.MaxAttempts)
	if errors.Is(err, reconciliation.ErrOrderNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, PaymentStatusResponse{
		Status:        string(res.OrderStatus),
		SessionStatus: string(res.SessionStatus),
		Terminal:      res.Terminal,
		Exhausted:     res.Exhausted,
		RetryAfterMS:  res.RetryAfter.Milliseconds(),
	})
}

// decodeStatusRequest accepts the JSON body sent by API clients and the
// form post sent by the checkout page poller.
func decodeStatusRequest(r *http.Request) (PaymentStatusRequest, error) {
	var req PaymentStatusRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.OrderID = r.FormValue("order_id")
	req.Attempt = atoiOrZero(r.FormValue("attempt"))
	req.MaxAttempts = atoiOrZero(r.FormValue("max_attempts"))
	return req, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
