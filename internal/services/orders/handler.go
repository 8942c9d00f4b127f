package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// Handler serves the Order concept endpoints.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates an orders HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the Order routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /Order/open", h.Open)
	mux.HandleFunc("POST /Order/addItem", h.AddItem)
	mux.HandleFunc("POST /Order/submit", h.Submit)
	mux.HandleFunc("POST /Order/complete", h.Complete)
	mux.HandleFunc("POST /Order/_lines", h.Lines)
	mux.HandleFunc("POST /Order/_status", h.Status)
	mux.HandleFunc("POST /Order/_byStatus", h.ByStatus)
}

// Open handles POST /Order/open.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orderID, err := h.service.Open(ctx, req.User)
	if err != nil {
		if errors.Is(err, ErrUserRequired) {
			h.writeDomainError(w, err.Error())
			return
		}
		h.logger.Error("order_open_failed", "Failed to open order", requestID, err, map[string]interface{}{
			"user": req.User,
		})
		h.writeServerError(w, requestID)
		return
	}

	h.logger.Debug("order_opened", "Order opened", requestID, map[string]interface{}{
		"order": orderID,
		"user":  req.User,
	})
	h.writeJSON(w, map[string]string{"order": orderID})
}

// AddItem handles POST /Order/addItem.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Order           string                      `json:"order"`
		Item            string                      `json:"item"`
		Qty             int                         `json:"qty"`
		DisplayItemName string                      `json:"displayItemName"`
		Selections      []models.SelectionWithNames `json:"selections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	line, err := h.service.AddItem(ctx, req.Order, req.Item, req.Qty, req.DisplayItemName, req.Selections)
	if err != nil {
		var selErr *SelectionError
		switch {
		case errors.As(err, &selErr):
			h.writeDomainError(w, selErr.Reason)
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrInvalidQty):
			h.writeDomainError(w, err.Error())
		default:
			h.logger.Error("order_add_item_failed", "Failed to add item", requestID, err, map[string]interface{}{
				"order": req.Order,
				"item":  req.Item,
			})
			h.writeServerError(w, requestID)
		}
		return
	}

	h.writeJSON(w, map[string]*models.OrderLine{"line": line})
}

// Submit handles POST /Order/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, "submit", func(ctx context.Context, orderID string) error {
		return h.service.Submit(ctx, orderID)
	})
}

// Complete handles POST /Order/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, "complete", func(ctx context.Context, orderID string) error {
		return h.service.Complete(ctx, orderID)
	})
}

// finalize is the shared request handling for submit and complete.
func (h *Handler) finalize(w http.ResponseWriter, r *http.Request, action string, op func(ctx context.Context, orderID string) error) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Order string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := op(ctx, req.Order); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrEmptyOrder):
			h.writeDomainError(w, err.Error())
		default:
			h.logger.Error("order_"+action+"_failed", "Failed to "+action+" order", requestID, err, map[string]interface{}{
				"order": req.Order,
			})
			h.writeServerError(w, requestID)
		}
		return
	}

	h.writeJSON(w, map[string]string{})
}

// Lines handles POST /Order/_lines.
func (h *Handler) Lines(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Order string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lines, err := h.service.Lines(ctx, req.Order)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeDomainError(w, err.Error())
			return
		}
		h.logger.Error("order_lines_failed", "Failed to list order lines", requestID, err, map[string]interface{}{
			"order": req.Order,
		})
		h.writeServerError(w, requestID)
		return
	}

	rows := make([]map[string]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, map[string]models.OrderLine{"line": line})
	}
	h.writeJSON(w, rows)
}

// Status handles POST /Order/_status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Order string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	status, err := h.service.Status(ctx, req.Order)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeDomainError(w, err.Error())
			return
		}
		h.logger.Error("order_status_failed", "Failed to get order status", requestID, err, map[string]interface{}{
			"order": req.Order,
		})
		h.writeServerError(w, requestID)
		return
	}

	h.writeJSON(w, []map[string]models.OrderStatus{{"status": status}})
}

// ByStatus handles POST /Order/_byStatus.
func (h *Handler) ByStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	switch req.Status {
	case models.StatusPending, models.StatusCompleted, models.StatusCanceled:
	default:
		h.writeDomainError(w, "status must be one of: pending, completed, canceled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := h.service.ByStatus(ctx, req.Status)
	if err != nil {
		h.logger.Error("orders_by_status_failed", "Failed to list orders", requestID, err, map[string]interface{}{
			"status": req.Status,
		})
		h.writeServerError(w, requestID)
		return
	}

	rows := make([]map[string]models.OrderSummary, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, map[string]models.OrderSummary{"order": order})
	}
	h.writeJSON(w, rows)
}

// writeJSON writes a successful payload.
func (h *Handler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// writeDomainError writes a business-rule failure as an error envelope.
func (h *Handler) writeDomainError(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

// writeServerError writes an internal failure as a non-2xx response.
func (h *Handler) writeServerError(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      "Internal server error",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}
