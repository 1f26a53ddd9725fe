package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
)

type RouterConfig struct {
	Orders         *OrderHandler
	Payments       *PaymentHandler
	Metrics        *metrics.Counters
	AccessLog      zerolog.Logger
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.AccessLog))
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Metrics.Snapshot())
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", cfg.Orders.CreateOrder)
		r.Get("/{id}", cfg.Orders.GetOrder)
		r.Post("/{id}/checkout", cfg.Payments.Checkout)
	})

	r.Post("/webhooks/pix", cfg.Payments.Webhook)
	r.Post("/payment-status", cfg.Payments.PaymentStatus)

	return r
}
