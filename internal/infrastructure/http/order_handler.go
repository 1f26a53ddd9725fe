package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
)

type OrderHandler struct {
	Orders order.Repository
}

type BillingPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Country   string `json:"country"`
	TaxID     string `json:"tax_id"`
}

type CreateOrderRequest struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	Billing    BillingPayload  `json:"billing"`
}

type NoteResponse struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderResponse struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id"`
	Total      string         `json:"total"`
	Currency   string         `json:"currency"`
	Status     string         `json:"status"`
	Billing    BillingPayload `json:"billing"`
	Notes      []NoteResponse `json:"notes"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	notes := make([]NoteResponse, 0, len(o.Notes))
	for _, n := range o.Notes {
		notes = append(notes, NoteResponse{Text: n.Text, CreatedAt: n.CreatedAt})
	}
	return OrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total.StringFixed(2),
		Currency:   o.Currency,
		Status:     string(o.Status),
		Billing: BillingPayload{
			FirstName: o.Billing.FirstName,
			LastName:  o.Billing.LastName,
			Email:     o.Billing.Email,
			Country:   o.Billing.Country,
			TaxID:     o.Billing.TaxID,
		},
		Notes: notes,
	}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Total.IsNegative() {
		http.Error(w, "total must not be negative", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	o := &order.Order{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		Total:      req.Total,
		Currency:   req.Currency,
		Billing: order.Billing{
			FirstName: req.Billing.FirstName,
			LastName:  req.Billing.LastName,
			Email:     req.Billing.Email,
			Country:   req.Billing.Country,
			TaxID:     req.Billing.TaxID,
		},
		Status: order.StatusPending,
	}

	err := h.Orders.Create(r.Context(), o)
	if errors.Is(err, order.ErrOrderExists) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, order.ErrOrderNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
