package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// ErrNoActiveOrder is returned when an operation requires an open order.
// The check fails fast, before any network call.
var ErrNoActiveOrder = errors.New("no active order")

// Gateway is the remote order capability set the session consumes.
type Gateway interface {
	Open(ctx context.Context, userID string) (string, error)
	AddItem(ctx context.Context, orderID, itemID string, qty int, displayItemName string, selections []models.SelectionWithNames) (*models.OrderLine, error)
	Submit(ctx context.Context, orderID string) error
	Lines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	Status(ctx context.Context, orderID string) ([]models.OrderStatus, error)
}

// Session manages the lifecycle of a single in-progress order: open, add
// lines, submit. The local order is a mirror of server state; after every
// accepted mutation the line cache is refreshed from the server rather than
// trusting the inline echo.
//
// Operations on one session must be issued sequentially by the caller. The
// session does not serialize concurrent calls itself.
type Session struct {
	gateway Gateway
	logger  *logger.Logger
	current *models.Order
}

// NewSession creates an order session with no current order.
func NewSession(gw Gateway, log *logger.Logger) *Session {
	return &Session{
		gateway: gw,
		logger:  log,
	}
}

// Open opens a new order for the user and mirrors the server-assigned id
// locally. On failure no partial order object is retained.
func (s *Session) Open(ctx context.Context, userID string) (string, error) {
	requestID := logger.GenerateRequestID()

	orderID, err := s.gateway.Open(ctx, userID)
	if err != nil {
		s.logger.Error("order_open_failed", fmt.Sprintf("Failed to open order for user %s", userID), requestID, err, map[string]interface{}{
			"user": userID,
		})
		return "", fmt.Errorf("failed to open order: %w", err)
	}

	s.current = &models.Order{
		ID:        orderID,
		User:      userID,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
		Lines:     []models.OrderLine{},
	}

	s.logger.Info("order_opened", fmt.Sprintf("Opened order %s", orderID), requestID, map[string]interface{}{
		"order": orderID,
		"user":  userID,
	})

	return orderID, nil
}

// AddItem adds one validated selection set as a line of the current order.
// The add is successful once the gateway accepts it; the subsequent line
// refresh may fail and leave the cache stale until the next refresh.
func (s *Session) AddItem(ctx context.Context, itemID string, qty int, selections []models.Selection, displayItemName string, selectionsWithNames []models.SelectionWithNames) (*models.OrderLine, error) {
	if s.current == nil {
		return nil, ErrNoActiveOrder
	}

	requestID := logger.GenerateRequestID()

	line, err := s.gateway.AddItem(ctx, s.current.ID, itemID, qty, displayItemName, selectionsWithNames)
	if err != nil {
		s.logger.Error("order_add_item_failed", fmt.Sprintf("Failed to add item %s to order %s", itemID, s.current.ID), requestID, err, map[string]interface{}{
			"order": s.current.ID,
			"item":  itemID,
			"qty":   qty,
		})
		return nil, fmt.Errorf("failed to add item to order: %w", err)
	}

	s.logger.Debug("order_item_added", fmt.Sprintf("Added item %s to order %s", itemID, s.current.ID), requestID, map[string]interface{}{
		"order":           s.current.ID,
		"item":            itemID,
		"qty":             qty,
		"selection_count": len(selections),
	})

	// The server's inline echo is not trusted as final state.
	s.RefreshLines(ctx)

	return line, nil
}

// Submit submits the current order. The local status deliberately stays
// pending: submit performs validation and finalization server-side, and
// callers must poll Status for the authoritative value.
func (s *Session) Submit(ctx context.Context) error {
	if s.current == nil {
		return ErrNoActiveOrder
	}

	requestID := logger.GenerateRequestID()

	if err := s.gateway.Submit(ctx, s.current.ID); err != nil {
		s.logger.Error("order_submit_failed", fmt.Sprintf("Failed to submit order %s", s.current.ID), requestID, err, map[string]interface{}{
			"order": s.current.ID,
		})
		return fmt.Errorf("failed to submit order: %w", err)
	}

	s.current.Status = models.StatusPending

	s.logger.Info("order_submitted", fmt.Sprintf("Submitted order %s", s.current.ID), requestID, map[string]interface{}{
		"order": s.current.ID,
	})

	return nil
}

// RefreshLines replaces the local line cache with the server's confirmed
// lines. It is a no-op without a current order, and a failed refresh never
// clears a good cache.
func (s *Session) RefreshLines(ctx context.Context) {
	if s.current == nil {
		return
	}

	requestID := logger.GenerateRequestID()

	lines, err := s.gateway.Lines(ctx, s.current.ID)
	if err != nil {
		s.logger.Error("order_lines_refresh_failed", fmt.Sprintf("Failed to refresh lines for order %s", s.current.ID), requestID, err, map[string]interface{}{
			"order": s.current.ID,
		})
		return
	}

	s.current.Lines = lines
}

// Status returns the server-reported status of the current order, defaulting
// to pending on any failure. It never returns an error.
func (s *Session) Status(ctx context.Context) models.OrderStatus {
	if s.current == nil {
		return models.StatusPending
	}

	requestID := logger.GenerateRequestID()

	statuses, err := s.gateway.Status(ctx, s.current.ID)
	if err != nil || len(statuses) == 0 {
		s.logger.Error("order_status_failed", fmt.Sprintf("Failed to get status for order %s", s.current.ID), requestID, err, map[string]interface{}{
			"order": s.current.ID,
		})
		return models.StatusPending
	}

	return statuses[0]
}

// Clear unconditionally resets the session to having no order, discarding
// the local line cache. Used on logout or explicit user cancellation.
func (s *Session) Clear() {
	s.current = nil
}

// HasItems reports whether the current order has at least one line.
func (s *Session) HasItems() bool {
	return s.current != nil && len(s.current.Lines) > 0
}

// Current returns a snapshot of the current order, if any.
func (s *Session) Current() (models.Order, bool) {
	if s.current == nil {
		return models.Order{}, false
	}

	snapshot := *s.current
	snapshot.Lines = make([]models.OrderLine, len(s.current.Lines))
	copy(snapshot.Lines, s.current.Lines)
	return snapshot, true
}
