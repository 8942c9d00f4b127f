package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"latte-lab/internal/database"
	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// ErrItemNotFound signals a request for an unknown or inactive menu item.
var ErrItemNotFound = errors.New("menu item not found")

// ErrOptionNotFound signals a request for an option the item does not have.
var ErrOptionNotFound = errors.New("menu option not found")

// Service provides the menu catalog capability set: active items, options,
// choices and authoritative selection-set validation.
type Service struct {
	db     *database.DB
	logger *logger.Logger
}

// NewService creates a catalog service.
func NewService(db *database.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log,
	}
}

// ActiveItems returns all active menu items in catalog order.
func (s *Service) ActiveItems(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.Query(ctx, database.GetActiveMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// OptionsForItem returns the options of one active item in catalog order.
func (s *Service) OptionsForItem(ctx context.Context, itemID string) ([]models.MenuOption, error) {
	if err := s.checkItemExists(ctx, itemID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, database.GetOptionsForItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	var options []models.MenuOption
	for rows.Next() {
		var option models.MenuOption
		if err := rows.Scan(&option.ID, &option.Name, &option.Required, &option.MaxChoices); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

// ChoicesFor returns the choices of one option of an item.
func (s *Service) ChoicesFor(ctx context.Context, itemID, optionID string) ([]models.MenuChoice, error) {
	var option models.MenuOption
	err := s.db.QueryRow(ctx, database.GetOptionForItemSQL, itemID, optionID).Scan(
		&option.ID, &option.Name, &option.Required, &option.MaxChoices,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, fmt.Errorf("failed to query option: %w", err)
	}

	rows, err := s.db.Query(ctx, database.GetChoicesForOptionSQL, itemID, optionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	var choices []models.MenuChoice
	for rows.Next() {
		var choice models.MenuChoice
		if err := rows.Scan(&choice.ID, &choice.Name); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, choice)
	}
	return choices, rows.Err()
}

// ValidateSelectionSet checks a submitted selection set against the item's
// option rules. The result is a normal value for both outcomes; an error is
// only returned for unknown items or storage failures.
func (s *Service) ValidateSelectionSet(ctx context.Context, itemID string, selections []models.Selection) (models.ValidationResult, error) {
	options, err := s.optionsWithChoices(ctx, itemID)
	if err != nil {
		return models.ValidationResult{}, err
	}

	return ValidateSelections(options, selections), nil
}

// optionsWithChoices assembles the item's options with their full choice
// lists for validation.
func (s *Service) optionsWithChoices(ctx context.Context, itemID string) ([]models.MenuOptionWithChoices, error) {
	options, err := s.OptionsForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	assembled := make([]models.MenuOptionWithChoices, 0, len(options))
	for _, option := range options {
		choices, err := s.ChoicesFor(ctx, itemID, option.ID)
		if err != nil {
			return nil, err
		}
		assembled = append(assembled, models.MenuOptionWithChoices{
			MenuOption: option,
			Choices:    choices,
		})
	}
	return assembled, nil
}

func (s *Service) checkItemExists(ctx context.Context, itemID string) error {
	var item models.MenuItem
	err := s.db.QueryRow(ctx, database.GetMenuItemSQL, itemID).Scan(
		&item.ID, &item.Name, &item.Description, &item.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to query menu item: %w", err)
	}
	if !item.IsActive {
		return ErrItemNotFound
	}
	return nil
}

// HealthCheck checks the health of the catalog's dependencies.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}
