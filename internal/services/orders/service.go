package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"latte-lab/internal/database"
	"latte-lab/internal/logger"
	"latte-lab/internal/messaging"
	"latte-lab/internal/models"
	"latte-lab/internal/services/catalog"
)

var (
	// ErrOrderNotFound signals a request for an unknown order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending signals a mutation on a finalized order.
	ErrOrderNotPending = errors.New("order is not pending")
	// ErrEmptyOrder signals a submit on an order with no lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrUserRequired signals an open request without a user.
	ErrUserRequired = errors.New("user is required")
	// ErrInvalidQty signals a line quantity below 1.
	ErrInvalidQty = errors.New("qty must be at least 1")
)

// SelectionError is a rejected selection set, carrying the catalog's reason.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return e.Reason
}

// Service owns the server-side order aggregate: open, add lines, submit,
// complete, and the line/status queries the client refreshes from.
type Service struct {
	db        *database.DB
	publisher *messaging.Publisher
	catalog   *catalog.Service
	logger    *logger.Logger
}

// NewService creates an orders service. publisher may be nil when event
// publishing is disabled.
func NewService(db *database.DB, publisher *messaging.Publisher, cat *catalog.Service, log *logger.Logger) *Service {
	return &Service{
		db:        db,
		publisher: publisher,
		catalog:   cat,
		logger:    log,
	}
}

// Open creates a new pending order for a user and returns its id.
func (s *Service) Open(ctx context.Context, user string) (string, error) {
	if user == "" {
		return "", ErrUserRequired
	}

	orderID := generateID("o")
	var createdAt time.Time
	if err := s.db.QueryRow(ctx, database.InsertOrderSQL, orderID, user).Scan(&createdAt); err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	if err := s.db.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, string(models.StatusPending), "order-service", "order opened"); err != nil {
		s.logger.Error("status_log_failed", "Failed to record initial status", "", err, map[string]interface{}{
			"order": orderID,
		})
	}

	return orderID, nil
}

// AddItem adds one line with its selections to a pending order. The
// selection set is validated against the catalog before anything is written.
func (s *Service) AddItem(ctx context.Context, orderID, itemID string, qty int, displayItemName string, selections []models.SelectionWithNames) (*models.OrderLine, error) {
	if qty < 1 {
		return nil, ErrInvalidQty
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, ErrOrderNotPending
	}

	plain := make([]models.Selection, 0, len(selections))
	for _, sel := range selections {
		plain = append(plain, models.Selection{Option: sel.Option, Choice: sel.Choice})
	}

	result, err := s.catalog.ValidateSelectionSet(ctx, itemID, plain)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return nil, &SelectionError{Reason: fmt.Sprintf("Menu item %s not found", itemID)}
		}
		return nil, fmt.Errorf("failed to validate selections: %w", err)
	}
	if !result.OK {
		return nil, &SelectionError{Reason: result.Reason}
	}

	lineID := generateID("l")

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, database.InsertOrderLineSQL, lineID, orderID, itemID, qty, displayItemName); err != nil {
		return nil, fmt.Errorf("failed to insert order line: %w", err)
	}
	for _, sel := range selections {
		if _, err := tx.Exec(ctx, database.InsertLineSelectionSQL, lineID, sel.Option, sel.Choice, sel.DisplayOptionName, sel.DisplayChoiceName); err != nil {
			return nil, fmt.Errorf("failed to insert line selection: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line: %w", err)
	}

	return &models.OrderLine{
		ID:              lineID,
		Item:            itemID,
		Qty:             qty,
		DisplayItemName: displayItemName,
		Selections:      selections,
	}, nil
}

// Submit finalizes a pending order server-side. The stored status stays
// pending; submission is recorded in the status log and announced on the
// events exchange. Clients query the status endpoint for truth.
func (s *Service) Submit(ctx context.Context, orderID string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending {
		return ErrOrderNotPending
	}

	var lineCount int
	if err := s.db.QueryRow(ctx, database.CountOrderLinesSQL, orderID).Scan(&lineCount); err != nil {
		return fmt.Errorf("failed to count order lines: %w", err)
	}
	if lineCount == 0 {
		return ErrEmptyOrder
	}

	if err := s.db.Exec(ctx, database.MarkOrderSubmittedSQL, orderID); err != nil {
		return fmt.Errorf("failed to mark order submitted: %w", err)
	}
	if err := s.db.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, string(models.StatusPending), "order-service", "order submitted"); err != nil {
		s.logger.Error("status_log_failed", "Failed to record submit", "", err, map[string]interface{}{
			"order": orderID,
		})
	}

	s.publishEvent(ctx, orderID, order.User, "submitted", string(models.StatusPending), string(models.StatusPending))
	return nil
}

// Complete marks a pending order as completed.
func (s *Service) Complete(ctx context.Context, orderID string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending {
		return ErrOrderNotPending
	}

	if err := s.db.Exec(ctx, database.UpdateOrderCompletedSQL, orderID); err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if err := s.db.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, string(models.StatusCompleted), "order-service", "order completed"); err != nil {
		s.logger.Error("status_log_failed", "Failed to record completion", "", err, map[string]interface{}{
			"order": orderID,
		})
	}

	s.publishEvent(ctx, orderID, order.User, "completed", string(models.StatusPending), string(models.StatusCompleted))
	return nil
}

// Lines returns the confirmed lines of an order with their selections.
func (s *Service) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	if _, err := s.getOrder(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, database.GetOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ID, &line.Item, &line.Qty, &line.DisplayItemName); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}

	for i := range lines {
		selections, err := s.lineSelections(ctx, lines[i].ID)
		if err != nil {
			return nil, err
		}
		lines[i].Selections = selections
	}
	return lines, nil
}

// Status returns the current status of an order.
func (s *Service) Status(ctx context.Context, orderID string) (models.OrderStatus, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// ByStatus lists orders currently in the given status.
func (s *Service) ByStatus(ctx context.Context, status models.OrderStatus) ([]models.OrderSummary, error) {
	rows, err := s.db.Query(ctx, database.GetOrdersByStatusSQL, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.OrderSummary
	for rows.Next() {
		var order models.OrderSummary
		if err := rows.Scan(&order.ID, &order.User, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// HealthCheck checks the health of the service's dependencies.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}

func (s *Service) getOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.QueryRow(ctx, database.GetOrderSQL, orderID).Scan(
		&order.ID, &order.User, &order.Status, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return &order, nil
}

func (s *Service) lineSelections(ctx context.Context, lineID string) ([]models.SelectionWithNames, error) {
	rows, err := s.db.Query(ctx, database.GetLineSelectionsSQL, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line selections: %w", err)
	}
	defer rows.Close()

	selections := []models.SelectionWithNames{}
	for rows.Next() {
		var sel models.SelectionWithNames
		if err := rows.Scan(&sel.Option, &sel.Choice, &sel.DisplayOptionName, &sel.DisplayChoiceName); err != nil {
			return nil, fmt.Errorf("failed to scan line selection: %w", err)
		}
		selections = append(selections, sel)
	}
	return selections, rows.Err()
}

// publishEvent announces an order state change; failures are logged, never
// propagated to the caller.
func (s *Service) publishEvent(ctx context.Context, orderID, user, event, oldStatus, newStatus string) {
	if s.publisher == nil {
		return
	}

	msg := models.NewOrderEventMessage(orderID, user, event, oldStatus, newStatus)
	if err := s.publisher.PublishOrderEvent(ctx, msg); err != nil {
		s.logger.Error("event_publish_failed", fmt.Sprintf("Failed to publish %s event", event), "", err, map[string]interface{}{
			"order": orderID,
			"event": event,
		})
	}
}

// generateID returns a prefixed random identifier, e.g. o_9f2c1a.
func generateID(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "_unknown"
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
