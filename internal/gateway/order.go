package gateway

import (
	"context"
	"encoding/json"

	"latte-lab/internal/models"
)

// OrderGateway maps requests and responses for the remote order aggregate.
type OrderGateway struct {
	client *Client
}

// NewOrderGateway creates an order gateway on top of a concept-API client.
func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

// Open opens a new order for a user and returns the server-assigned order id.
func (g *OrderGateway) Open(ctx context.Context, userID string) (string, error) {
	raw, err := g.client.Call(ctx, "/Order/open", map[string]string{"user": userID})
	if err != nil {
		return "", err
	}

	var resp struct {
		Order string `json:"order"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Order == "" {
		return "", ErrMalformed
	}
	return resp.Order, nil
}

// AddItem adds one line to an order. The returned line is the server's inline
// echo; callers must not treat it as final state and should re-fetch lines.
func (g *OrderGateway) AddItem(ctx context.Context, orderID, itemID string, qty int, displayItemName string, selections []models.SelectionWithNames) (*models.OrderLine, error) {
	if selections == nil {
		selections = []models.SelectionWithNames{}
	}
	payload := struct {
		Order           string                      `json:"order"`
		Item            string                      `json:"item"`
		Qty             int                         `json:"qty"`
		DisplayItemName string                      `json:"displayItemName"`
		Selections      []models.SelectionWithNames `json:"selections"`
	}{Order: orderID, Item: itemID, Qty: qty, DisplayItemName: displayItemName, Selections: selections}

	raw, err := g.client.Call(ctx, "/Order/addItem", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Line *models.OrderLine `json:"line"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Line == nil {
		return nil, ErrMalformed
	}
	return resp.Line, nil
}

// Submit submits a pending order for server-side validation and finalization.
func (g *OrderGateway) Submit(ctx context.Context, orderID string) error {
	_, err := g.client.Call(ctx, "/Order/submit", map[string]string{"order": orderID})
	return err
}

// Complete marks an order as completed.
func (g *OrderGateway) Complete(ctx context.Context, orderID string) error {
	_, err := g.client.Call(ctx, "/Order/complete", map[string]string{"order": orderID})
	return err
}

// Lines returns the server-confirmed lines of an order.
func (g *OrderGateway) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	raw, err := g.client.Call(ctx, "/Order/_lines", map[string]string{"order": orderID})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Line models.OrderLine `json:"line"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	lines := make([]models.OrderLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Line)
	}
	return lines, nil
}

// Status returns the status rows the server reports for an order.
func (g *OrderGateway) Status(ctx context.Context, orderID string) ([]models.OrderStatus, error) {
	raw, err := g.client.Call(ctx, "/Order/_status", map[string]string{"order": orderID})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	statuses := make([]models.OrderStatus, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, row.Status)
	}
	return statuses, nil
}

// OrdersByStatus lists orders that currently have the given status.
func (g *OrderGateway) OrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.OrderSummary, error) {
	raw, err := g.client.Call(ctx, "/Order/_byStatus", map[string]string{"status": string(status)})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Order models.OrderSummary `json:"order"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	orders := make([]models.OrderSummary, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.Order)
	}
	return orders, nil
}
