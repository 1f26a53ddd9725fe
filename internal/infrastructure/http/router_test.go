package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/pixgate/internal/application/amount"
	"github.com/rcarvalho-pb/pixgate/internal/application/checkout"
	"github.com/rcarvalho-pb/pixgate/internal/application/gateway"
	"github.com/rcarvalho-pb/pixgate/internal/application/reconciliation"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
	httpapi "github.com/rcarvalho-pb/pixgate/internal/infrastructure/http"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/persistence/inmemory"
)

type fakeProvider struct {
	createFn func(checkout.ChargeRequest) (*checkout.Charge, error)
}

func (f *fakeProvider) CreateCharge(_ context.Context, _ checkout.Credential, req checkout.ChargeRequest) (*checkout.Charge, error) {
	return f.createFn(req)
}

type fakeRecorder struct {
	recordFn func(event.Event) error
}

func (f *fakeRecorder) Record(_ context.Context, evt event.Event) error {
	return f.recordFn(evt)
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (r *recordingLogger) Info(string, map[string]any) {}
func (r *recordingLogger) Warn(string, map[string]any) {}
func (r *recordingLogger) Error(msg string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

type testServer struct {
	srv      *httptest.Server
	provider *fakeProvider
	sessions *inmemory.SessionRepository
	orders   *inmemory.OrderRepository
	logger   *recordingLogger
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		provider: &fakeProvider{},
		sessions: inmemory.NewSessionRepository(),
		orders:   inmemory.NewOrderRepository(),
		logger:   &recordingLogger{},
	}
	ts.provider.createFn = func(req checkout.ChargeRequest) (*checkout.Charge, error) {
		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		return &checkout.Charge{ID: "S1", Payload: "000201pix", Amount: req.Amount, ExpiresAt: &expires}, nil
	}

	m := &metrics.Counters{}
	recorder := &fakeRecorder{recordFn: func(event.Event) error { return nil }}

	gw := &gateway.Gateway{
		Settings: gateway.Settings{
			Amount:             amount.Config{ManualRate: decimal.NewFromInt(5)},
			StoreCurrency:      "USD",
			SettlementCurrency: "BRL",
		},
		Orders:   ts.orders,
		Resolver: &amount.Resolver{},
		Initiator: &checkout.Initiator{
			Provider: ts.provider,
			Sessions: ts.sessions,
			Orders:   ts.orders,
			Cart:     inmemory.NewCart(),
			Recorder: recorder,
			Logger:   ts.logger,
			Metrics:  m,
		},
		Listener: &reconciliation.Listener{
			Sessions:        ts.sessions,
			EventLog:        inmemory.NewEventLog(),
			Orders:          ts.orders,
			Recorder:        recorder,
			Logger:          ts.logger,
			Metrics:         m,
			PollMaxAttempts: 2,
			PollInterval:    5 * time.Second,
		},
		Logger:  ts.logger,
		Metrics: m,
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Orders:    &httpapi.OrderHandler{Orders: ts.orders},
		Payments:  &httpapi.PaymentHandler{Gateway: gw, Logger: ts.logger},
		Metrics:   m,
		AccessLog: zerolog.Nop(),
	})
	ts.srv = httptest.NewServer(router)
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) seedOrder(t *testing.T, status order.Status) {
	require.NoError(t, ts.orders.Save(context.Background(), &order.Order{
		ID:         "order-1",
		CustomerID: "cust-1",
		Total:      decimal.RequireFromString("100.00"),
		Currency:   "USD",
		Billing:    order.Billing{FirstName: "Ana", LastName: "Silva", Country: "BR", TaxID: "390.533.447-05"},
		Status:     status,
	}))
}

func (ts *testServer) seedSession(t *testing.T) {
	require.NoError(t, ts.sessions.Save(context.Background(), &session.Session{
		ID:          "S1",
		OrderID:     "order-1",
		Payload:     "000201pix",
		AmountMinor: 50000,
		Currency:    "BRL",
		Status:      session.StatusAwaitingPayment,
	}))
}

func postJSON(t *testing.T, url, body string) *http.Response {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestWebhook_WhenPaidForAwaitingSession_ShouldCompleteOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusOnHold)
	ts.seedSession(t)

	resp := postJSON(t, ts.srv.URL+"/webhooks/pix", `{"id":"evt-1","event":"payment.status","data":{"id":"S1","status":"PAID"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", readBody(t, resp))

	ord, err := ts.orders.FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, ord.Status)
}

func TestWebhook_WhenSessionUnknown_ShouldAcknowledgeAndLog(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusOnHold)
	ts.seedSession(t)

	resp := postJSON(t, ts.srv.URL+"/webhooks/pix", `{"id":"evt-1","data":{"id":"S-unknown","status":"PAID"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", readBody(t, resp))

	ord, err := ts.orders.FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusOnHold, ord.Status)
	require.Positive(t, ts.logger.errorCount())
}

func TestWebhook_WhenPayloadMalformed_ShouldReturnBadRequest(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.srv.URL+"/webhooks/pix", `{"data":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckout_ShouldReturnPixPayloadInMinorUnits(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusPending)

	resp := postJSON(t, ts.srv.URL+"/orders/order-1/checkout", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httpapi.CheckoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "success", body.Result)
	require.Equal(t, "S1", body.SessionID)
	require.Equal(t, "000201pix", body.PixPayload)
	require.Equal(t, int64(50000), body.Amount)
	require.Equal(t, "BRL", body.Currency)
	require.NotNil(t, body.ExpiresAt)
}

func TestCheckout_WhenProviderFails_ShouldReturnGenericNotice(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusPending)
	ts.provider.createFn = func(checkout.ChargeRequest) (*checkout.Charge, error) {
		return nil, checkout.ErrProviderUnavailable
	}

	resp := postJSON(t, ts.srv.URL+"/orders/order-1/checkout", ``)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body httpapi.CheckoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "failure", body.Result)
	require.Equal(t, "Error generating PIX QRCode. Please try again.", body.Message)
}

func TestCheckout_WhenOrderUnknown_ShouldReturnNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.srv.URL+"/orders/missing/checkout", ``)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckout_WhenOrderCompleted_ShouldReturnConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusCompleted)
	called := false
	ts.provider.createFn = func(checkout.ChargeRequest) (*checkout.Charge, error) {
		called = true
		return nil, checkout.ErrProviderUnavailable
	}

	resp := postJSON(t, ts.srv.URL+"/orders/order-1/checkout", ``)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.False(t, called)

	ord, err := ts.orders.FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, ord.Status)
}

func TestPaymentStatus_ShouldAcceptFormAndJSON(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusOnHold)
	ts.seedSession(t)

	resp, err := http.PostForm(ts.srv.URL+"/payment-status", url.Values{
		"order_id": {"order-1"},
		"attempt":  {"2"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httpapi.PaymentStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "on-hold", body.Status)
	require.Equal(t, "AWAITING_PAYMENT", body.SessionStatus)
	require.False(t, body.Terminal)
	require.True(t, body.Exhausted)
	require.Equal(t, int64(5000), body.RetryAfterMS)

	jsonResp := postJSON(t, ts.srv.URL+"/payment-status", `{"order_id":"order-1","attempt":1,"max_attempts":2}`)
	require.Equal(t, http.StatusOK, jsonResp.StatusCode)
	require.NoError(t, json.NewDecoder(jsonResp.Body).Decode(&body))
	require.False(t, body.Exhausted)
}

func TestPaymentStatus_WhenOrderUnknown_ShouldReturnNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.srv.URL+"/payment-status", `{"order_id":"missing"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_CreateThenGet(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.srv.URL+"/orders", `{"id":"order-9","customer_id":"c-1","total":"42.50","currency":"USD","billing":{"first_name":"Ana","tax_id":"39053344705"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got, err := http.Get(ts.srv.URL + "/orders/order-9")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var body httpapi.OrderResponse
	require.NoError(t, json.NewDecoder(got.Body).Decode(&body))
	require.Equal(t, "42.50", body.Total)
	require.Equal(t, "pending", body.Status)
	require.Equal(t, "Ana", body.Billing.FirstName)

	missing, err := http.Get(ts.srv.URL + "/orders/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestOrders_WhenIDTaken_ShouldReturnConflictAndKeepOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, order.StatusCompleted)

	resp := postJSON(t, ts.srv.URL+"/orders", `{"id":"order-1","customer_id":"cust-1","total":"0.01","currency":"USD"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	ord, err := ts.orders.FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, ord.Status)
	require.True(t, ord.Total.Equal(decimal.RequireFromString("100.00")))
}

func TestMetricsAndHealth(t *testing.T) {
	ts := newTestServer(t)

	health, err := http.Get(ts.srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	postJSON(t, ts.srv.URL+"/webhooks/pix", `{"id":"evt-1","data":{"id":"nope","status":"PAID"}}`)

	resp, err := http.Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snapshot map[string]uint64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Equal(t, uint64(1), snapshot["webhooks_received"])
	require.Equal(t, uint64(1), snapshot["webhooks_discarded"])
}
