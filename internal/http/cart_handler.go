package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/rocketcart/internal/cart"
	"github.com/fjod/rocketcart/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CartSessions resolves the cart store behind a session id.
type CartSessions interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

type CartHandler struct {
	sessions CartSessions
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCartHandler(sessions CartSessions, timeout time.Duration, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{
		sessions: sessions,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountRequestDTO struct {
	Amount *int `json:"amount"`
}

type CartResponse struct {
	Items    domain.Cart `json:"items"`
	Count    int         `json:"count"`
	Subtotal string      `json:"subtotal"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(ctx, w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(store.Cart()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	store, ok := h.store(ctx, w)
	if !ok {
		return
	}
	committed, err := store.Add(ctx, req.ProductID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(committed))
}

func (h *CartHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Amount == nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount is required")
		return
	}

	store, ok := h.store(ctx, w)
	if !ok {
		return
	}
	// A non-positive amount is accepted and leaves the cart as it is.
	committed, err := store.SetAmount(ctx, productID, *req.Amount)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(committed))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	store, ok := h.store(ctx, w)
	if !ok {
		return
	}
	committed, err := store.Remove(ctx, productID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(committed))
}

func (h *CartHandler) store(ctx context.Context, w http.ResponseWriter) (*cart.Store, bool) {
	store, err := h.sessions.Get(ctx, getSessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open cart", "err", err, "request_id", getRequestID(ctx))
		respondError(w, http.StatusInternalServerError, "storage_error", "cart could not be loaded")
		return nil, false
	}
	return store, true
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func newCartResponse(c domain.Cart) CartResponse {
	return CartResponse{
		Items:    c,
		Count:    c.Count(),
		Subtotal: c.Subtotal().StringFixed(2),
	}
}

func handleCartError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch cart.KindOf(err) {
	case cart.KindStockExceeded:
		httpStatus = http.StatusConflict
		code = "out_of_stock"
	case cart.KindItemNotFound:
		httpStatus = http.StatusNotFound
		code = "item_not_found"
	case cart.KindFetchFailed:
		httpStatus = http.StatusBadGateway
		code = "catalog_unavailable"
	case cart.KindStorage:
		httpStatus = http.StatusInternalServerError
		code = "storage_error"
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, cart.Message(err))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
