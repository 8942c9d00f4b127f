package menu

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

type fakeCatalog struct {
	items      []models.MenuItem
	itemsErr   error
	options    map[string][]models.MenuOption
	optionsErr map[string]error
	choices    map[string][]models.MenuChoice
	choicesErr map[string]error

	// incremented from concurrent assembly goroutines
	optionCalls atomic.Int32
}

func (f *fakeCatalog) AllActiveItems(ctx context.Context) ([]models.MenuItem, error) {
	return f.items, f.itemsErr
}

func (f *fakeCatalog) OptionsForItem(ctx context.Context, itemID string) ([]models.MenuOption, error) {
	f.optionCalls.Add(1)
	if err, ok := f.optionsErr[itemID]; ok {
		return nil, err
	}
	return f.options[itemID], nil
}

func (f *fakeCatalog) ChoicesFor(ctx context.Context, itemID, optionID string) ([]models.MenuChoice, error) {
	if err, ok := f.choicesErr[optionID]; ok {
		return nil, err
	}
	return f.choices[optionID], nil
}

func item(id string) models.MenuItem {
	return models.MenuItem{ID: id, Name: id, IsActive: true}
}

func TestLoadMenuItems_EmptyCatalog(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, logger.New("test"))

	_, err := engine.LoadMenuItems(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
	if len(engine.Items()) != 0 || len(engine.ItemsWithOptions()) != 0 {
		t.Fatal("cache must stay empty after an empty catalog response")
	}
}

func TestLoadMenuItems_CatalogError(t *testing.T) {
	engine := NewEngine(&fakeCatalog{itemsErr: errors.New("boom")}, logger.New("test"))

	_, err := engine.LoadMenuItems(context.Background())
	if err == nil || errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected a wrapped fetch error, got %v", err)
	}
}

func TestLoadMenuItems_OptionFetchFailureKeepsItem(t *testing.T) {
	catalog := &fakeCatalog{
		items: []models.MenuItem{item("latte"), item("mocha")},
		options: map[string][]models.MenuOption{
			"latte": {{ID: "milk", Name: "Milk", Required: true, MaxChoices: 1}},
		},
		optionsErr: map[string]error{"mocha": errors.New("timeout")},
		choices: map[string][]models.MenuChoice{
			"milk": {{ID: "oat", Name: "Oat"}},
		},
	}
	engine := NewEngine(catalog, logger.New("test"))

	result, err := engine.LoadMenuItems(context.Background())
	if err != nil {
		t.Fatalf("LoadMenuItems returned error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected both items kept, got %d", len(result))
	}
	if result[0].ID != "latte" || result[1].ID != "mocha" {
		t.Fatalf("server order not preserved: %q, %q", result[0].ID, result[1].ID)
	}
	if len(result[1].Options) != 0 {
		t.Fatalf("degraded item must have empty options, got %d", len(result[1].Options))
	}
	if !result[1].OptionsFetchFailed {
		t.Fatal("degraded item must be flagged as fetch-failed")
	}
	if result[0].OptionsFetchFailed {
		t.Fatal("healthy item must not be flagged")
	}
	if len(result[0].Options) != 1 || len(result[0].Options[0].Choices) != 1 {
		t.Fatalf("healthy item not fully assembled: %+v", result[0])
	}
	if calls := catalog.optionCalls.Load(); calls != 2 {
		t.Fatalf("expected one options fetch per item, got %d", calls)
	}
}

func TestLoadMenuItems_ChoiceFetchFailureKeepsOption(t *testing.T) {
	catalog := &fakeCatalog{
		items: []models.MenuItem{item("latte")},
		options: map[string][]models.MenuOption{
			"latte": {
				{ID: "milk", Name: "Milk", Required: true, MaxChoices: 1},
				{ID: "temp", Name: "Temperature", Required: false, MaxChoices: 1},
			},
		},
		choices: map[string][]models.MenuChoice{
			"milk": {{ID: "oat", Name: "Oat"}},
		},
		choicesErr: map[string]error{"temp": errors.New("timeout")},
	}
	engine := NewEngine(catalog, logger.New("test"))

	result, err := engine.LoadMenuItems(context.Background())
	if err != nil {
		t.Fatalf("LoadMenuItems returned error: %v", err)
	}
	options := result[0].Options
	if len(options) != 2 {
		t.Fatalf("expected both options kept, got %d", len(options))
	}
	if len(options[1].Choices) != 0 || !options[1].ChoicesFetchFailed {
		t.Fatalf("degraded option must keep empty flagged choices: %+v", options[1])
	}
	if options[0].ChoicesFetchFailed || len(options[0].Choices) != 1 {
		t.Fatalf("healthy option affected by sibling failure: %+v", options[0])
	}
}

func TestLoadMenuItems_CacheSurvivesFailedReload(t *testing.T) {
	catalog := &fakeCatalog{
		items: []models.MenuItem{item("latte")},
		options: map[string][]models.MenuOption{
			"latte": {{ID: "milk", Name: "Milk", Required: true, MaxChoices: 1}},
		},
		choices: map[string][]models.MenuChoice{
			"milk": {{ID: "oat", Name: "Oat"}},
		},
	}
	engine := NewEngine(catalog, logger.New("test"))

	if _, err := engine.LoadMenuItems(context.Background()); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	catalog.itemsErr = errors.New("network down")
	if _, err := engine.LoadMenuItems(context.Background()); err == nil {
		t.Fatal("expected reload to fail")
	}

	if len(engine.ItemsWithOptions()) != 1 {
		t.Fatal("failed reload must leave the previous snapshot intact")
	}
}

func TestItemWithOptions_Lookup(t *testing.T) {
	catalog := &fakeCatalog{
		items: []models.MenuItem{item("latte"), item("mocha")},
		options: map[string][]models.MenuOption{
			"latte": {}, "mocha": {},
		},
	}
	engine := NewEngine(catalog, logger.New("test"))

	if _, err := engine.LoadMenuItems(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	found, ok := engine.ItemWithOptions("mocha")
	if !ok || found.ID != "mocha" {
		t.Fatalf("lookup failed: %v %v", found, ok)
	}
	if _, ok := engine.ItemWithOptions("espresso"); ok {
		t.Fatal("lookup must miss for unknown item")
	}
}
