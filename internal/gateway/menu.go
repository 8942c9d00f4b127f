package gateway

import (
	"context"
	"encoding/json"

	"latte-lab/internal/models"
)

// MenuGateway maps requests and responses for the remote menu catalog.
type MenuGateway struct {
	client *Client
}

// NewMenuGateway creates a menu gateway on top of a concept-API client.
func NewMenuGateway(client *Client) *MenuGateway {
	return &MenuGateway{client: client}
}

// AllActiveItems returns every active catalog item in server order.
func (g *MenuGateway) AllActiveItems(ctx context.Context) ([]models.MenuItem, error) {
	raw, err := g.client.Call(ctx, "/Menu/_allActiveItems", struct{}{})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Item models.MenuItem `json:"item"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	items := make([]models.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Item)
	}
	return items, nil
}

// OptionsForItem returns the options of one item in server order.
func (g *MenuGateway) OptionsForItem(ctx context.Context, itemID string) ([]models.MenuOption, error) {
	raw, err := g.client.Call(ctx, "/Menu/_optionsForItem", map[string]string{"item": itemID})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Option models.MenuOption `json:"option"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	options := make([]models.MenuOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, row.Option)
	}
	return options, nil
}

// ChoicesFor returns the available choices for an item's option.
func (g *MenuGateway) ChoicesFor(ctx context.Context, itemID, optionID string) ([]models.MenuChoice, error) {
	raw, err := g.client.Call(ctx, "/Menu/_choicesFor", map[string]string{"item": itemID, "option": optionID})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Choice models.MenuChoice `json:"choice"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, ErrMalformed
	}

	choices := make([]models.MenuChoice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, row.Choice)
	}
	return choices, nil
}

// ValidateSelectionSet forwards a raw selection set for authoritative
// server-side validation and returns the result rows as-is.
func (g *MenuGateway) ValidateSelectionSet(ctx context.Context, itemID string, selections []models.Selection) ([]models.ValidationResult, error) {
	if selections == nil {
		selections = []models.Selection{}
	}
	payload := struct {
		Item       string             `json:"item"`
		Selections []models.Selection `json:"selections"`
	}{Item: itemID, Selections: selections}

	raw, err := g.client.Call(ctx, "/Menu/_isSelectionSetValid", payload)
	if err != nil {
		return nil, err
	}

	var results []models.ValidationResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, ErrMalformed
	}
	return results, nil
}
