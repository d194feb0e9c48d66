package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/middleware"
	"github.com/and161185/vpay/internal/model"
	"github.com/and161185/vpay/internal/orderclient"
	"github.com/go-chi/chi/v5"
)

// CreateOrderHandler is the ledger side of create-order: it records a
// pending debit once per idempotency key.
func (s *Server) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	receipt, err := s.storage.CreateOrder(r.Context(), user, req, r.Header.Get(orderclient.IdempotencyHeader))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInsufficientFunds):
			http.Error(w, "insufficient funds", http.StatusPaymentRequired)
		default:
			s.deps.Logger.Errorf("create order for user %d: %v", user.ID, err)
			http.Error(w, "create order failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || req.Amount <= 0 {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	settled, err := s.storage.VerifyPayment(r.Context(), user, req.OrderID, req.Amount)
	if err != nil {
		s.deps.Logger.Errorf("verify order %s: %v", req.OrderID, err)
		http.Error(w, "verify failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, model.VerifyResponse{Settled: settled})
}

func (s *Server) GetOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	status, err := s.storage.GetOrderStatus(r.Context(), user, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}{orderID, status})
}
