package menu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// ErrEmptyCatalog is returned when the catalog reports no active items. An
// empty menu is a backend-configuration problem the user should see
// distinctly from a network error.
var ErrEmptyCatalog = errors.New("No menu items found")

// Catalog is the remote menu capability set the engine consumes.
type Catalog interface {
	AllActiveItems(ctx context.Context) ([]models.MenuItem, error)
	OptionsForItem(ctx context.Context, itemID string) ([]models.MenuOption, error)
	ChoicesFor(ctx context.Context, itemID, optionID string) ([]models.MenuChoice, error)
}

// Engine fetches and denormalizes catalog items, options and choices into
// MenuItemWithOptions values. Items are processed independently: a failed
// nested fetch degrades that branch to an empty list (flagged), it never
// drops the item or aborts the load. The cached snapshot is replaced
// atomically only after a full pass completes.
type Engine struct {
	catalog Catalog
	logger  *logger.Logger

	mu               sync.RWMutex
	items            []models.MenuItem
	itemsWithOptions []models.MenuItemWithOptions
}

// NewEngine creates a menu assembly engine.
func NewEngine(catalog Catalog, log *logger.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		logger:  log,
	}
}

// LoadMenuItems loads all active items and assembles their options and
// choices, preserving server order. Option fetches for different items run
// concurrently; results are committed to the cache only after the whole
// batch finishes, so readers never observe a half-populated menu.
func (e *Engine) LoadMenuItems(ctx context.Context) ([]models.MenuItemWithOptions, error) {
	requestID := logger.GenerateRequestID()

	items, err := e.catalog.AllActiveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	assembled := make([]models.MenuItemWithOptions, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.MenuItem) {
			defer wg.Done()
			assembled[i] = e.assembleItem(ctx, item, requestID)
		}(i, item)
	}
	wg.Wait()

	e.mu.Lock()
	e.items = items
	e.itemsWithOptions = assembled
	e.mu.Unlock()

	e.logger.Debug("menu_loaded", fmt.Sprintf("Assembled %d menu items", len(assembled)), requestID, map[string]interface{}{
		"item_count": len(assembled),
	})

	return assembled, nil
}

// assembleItem resolves one item's options and per-option choices. Nested
// fetch failures are logged and leave the branch empty with its degraded
// flag set.
func (e *Engine) assembleItem(ctx context.Context, item models.MenuItem, requestID string) models.MenuItemWithOptions {
	result := models.MenuItemWithOptions{
		MenuItem: item,
		Options:  []models.MenuOptionWithChoices{},
	}

	options, err := e.catalog.OptionsForItem(ctx, item.ID)
	if err != nil {
		e.logger.Error("options_fetch_failed", fmt.Sprintf("Failed to fetch options for item %s", item.ID), requestID, err, map[string]interface{}{
			"item": item.ID,
		})
		result.OptionsFetchFailed = true
		return result
	}

	for _, option := range options {
		withChoices := models.MenuOptionWithChoices{
			MenuOption: option,
			Choices:    []models.MenuChoice{},
		}

		choices, err := e.catalog.ChoicesFor(ctx, item.ID, option.ID)
		if err != nil {
			e.logger.Error("choices_fetch_failed", fmt.Sprintf("Failed to fetch choices for option %s", option.ID), requestID, err, map[string]interface{}{
				"item":   item.ID,
				"option": option.ID,
			})
			withChoices.ChoicesFetchFailed = true
		} else {
			withChoices.Choices = choices
		}

		result.Options = append(result.Options, withChoices)
	}

	return result
}

// Items returns the cached catalog items from the last successful load.
func (e *Engine) Items() []models.MenuItem {
	e.mu.RLock()
	defer e.mu.RUnlock()

	items := make([]models.MenuItem, len(e.items))
	copy(items, e.items)
	return items
}

// ItemsWithOptions returns the cached assembled view from the last
// successful load.
func (e *Engine) ItemsWithOptions() []models.MenuItemWithOptions {
	e.mu.RLock()
	defer e.mu.RUnlock()

	items := make([]models.MenuItemWithOptions, len(e.itemsWithOptions))
	copy(items, e.itemsWithOptions)
	return items
}

// ItemWithOptions looks up one assembled item by id in the cached snapshot.
func (e *Engine) ItemWithOptions(itemID string) (models.MenuItemWithOptions, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, item := range e.itemsWithOptions {
		if item.ID == itemID {
			return item, true
		}
	}
	return models.MenuItemWithOptions{}, false
}
