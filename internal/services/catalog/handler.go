package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// Handler serves the Menu concept endpoints.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a catalog HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the Menu routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /Menu/_allActiveItems", h.AllActiveItems)
	mux.HandleFunc("POST /Menu/_optionsForItem", h.OptionsForItem)
	mux.HandleFunc("POST /Menu/_choicesFor", h.ChoicesFor)
	mux.HandleFunc("POST /Menu/_isSelectionSetValid", h.IsSelectionSetValid)
}

// AllActiveItems handles POST /Menu/_allActiveItems.
func (h *Handler) AllActiveItems(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items, err := h.service.ActiveItems(ctx)
	if err != nil {
		h.logger.Error("menu_query_failed", "Failed to list active items", requestID, err, nil)
		h.writeServerError(w, requestID)
		return
	}

	rows := make([]map[string]models.MenuItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]models.MenuItem{"item": item})
	}
	h.writeJSON(w, rows)
}

// OptionsForItem handles POST /Menu/_optionsForItem.
func (h *Handler) OptionsForItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Item string `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	options, err := h.service.OptionsForItem(ctx, req.Item)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeDomainError(w, fmt.Sprintf("Menu item %s not found", req.Item))
			return
		}
		h.logger.Error("menu_query_failed", "Failed to list options", requestID, err, map[string]interface{}{
			"item": req.Item,
		})
		h.writeServerError(w, requestID)
		return
	}

	rows := make([]map[string]models.MenuOption, 0, len(options))
	for _, option := range options {
		rows = append(rows, map[string]models.MenuOption{"option": option})
	}
	h.writeJSON(w, rows)
}

// ChoicesFor handles POST /Menu/_choicesFor.
func (h *Handler) ChoicesFor(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Item   string `json:"item"`
		Option string `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	choices, err := h.service.ChoicesFor(ctx, req.Item, req.Option)
	if err != nil {
		if errors.Is(err, ErrOptionNotFound) {
			h.writeDomainError(w, fmt.Sprintf("Option %s not found for item %s", req.Option, req.Item))
			return
		}
		h.logger.Error("menu_query_failed", "Failed to list choices", requestID, err, map[string]interface{}{
			"item":   req.Item,
			"option": req.Option,
		})
		h.writeServerError(w, requestID)
		return
	}

	rows := make([]map[string]models.MenuChoice, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, map[string]models.MenuChoice{"choice": choice})
	}
	h.writeJSON(w, rows)
}

// IsSelectionSetValid handles POST /Menu/_isSelectionSetValid.
func (h *Handler) IsSelectionSetValid(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req struct {
		Item       string             `json:"item"`
		Selections []models.Selection `json:"selections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.service.ValidateSelectionSet(ctx, req.Item, req.Selections)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeDomainError(w, fmt.Sprintf("Menu item %s not found", req.Item))
			return
		}
		h.logger.Error("selection_validation_failed", "Failed to validate selection set", requestID, err, map[string]interface{}{
			"item": req.Item,
		})
		h.writeServerError(w, requestID)
		return
	}

	h.writeJSON(w, []models.ValidationResult{result})
}

// writeJSON writes a successful payload.
func (h *Handler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// writeDomainError writes a business-rule failure as an error envelope. The
// transport succeeds; clients surface the reason verbatim.
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
