package selection

import (
	"context"
	"errors"
	"testing"

	"latte-lab/internal/gateway"
	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

type fakeChecker struct {
	results []models.ValidationResult
	err     error
}

func (f *fakeChecker) ValidateSelectionSet(ctx context.Context, itemID string, selections []models.Selection) ([]models.ValidationResult, error) {
	return f.results, f.err
}

func TestValidate_RelaysServerRowVerbatim(t *testing.T) {
	checker := &fakeChecker{
		results: []models.ValidationResult{{OK: false, Reason: "Option Milk requires 1 choice"}},
	}
	v := NewValidator(checker, logger.New("test"))

	result := v.Validate(context.Background(), "latte", nil)
	if result.OK || result.Reason != "Option Milk requires 1 choice" {
		t.Fatalf("expected server row unchanged, got %+v", result)
	}
}

func TestValidate_FirstRowWins(t *testing.T) {
	checker := &fakeChecker{
		results: []models.ValidationResult{{OK: true}, {OK: false, Reason: "ignored"}},
	}
	v := NewValidator(checker, logger.New("test"))

	result := v.Validate(context.Background(), "latte", nil)
	if !result.OK {
		t.Fatalf("expected first row, got %+v", result)
	}
}

func TestValidate_ErrorEnvelope(t *testing.T) {
	checker := &fakeChecker{err: &gateway.DomainError{Reason: "item not found"}}
	v := NewValidator(checker, logger.New("test"))

	result := v.Validate(context.Background(), "ghost", nil)
	if result.OK || result.Reason != "item not found" {
		t.Fatalf("expected envelope reason surfaced, got %+v", result)
	}
}

func TestValidate_EmptyListIsProtocolViolation(t *testing.T) {
	v := NewValidator(&fakeChecker{results: []models.ValidationResult{}}, logger.New("test"))

	result := v.Validate(context.Background(), "latte", nil)
	if result.OK || result.Reason != "Unexpected response format" {
		t.Fatalf("expected unexpected-format reason, got %+v", result)
	}
}

func TestValidate_MalformedResponse(t *testing.T) {
	v := NewValidator(&fakeChecker{err: gateway.ErrMalformed}, logger.New("test"))

	result := v.Validate(context.Background(), "latte", nil)
	if result.OK || result.Reason != "Unexpected response format" {
		t.Fatalf("expected unexpected-format reason, got %+v", result)
	}
}

func TestValidate_TransportFailure(t *testing.T) {
	v := NewValidator(&fakeChecker{err: errors.New("connection refused")}, logger.New("test"))

	result := v.Validate(context.Background(), "latte", nil)
	if result.OK || result.Reason != "Validation failed" {
		t.Fatalf("expected generic failure reason, got %+v", result)
	}
}

func TestPrecheck(t *testing.T) {
	milk := models.MenuOptionWithChoices{
		MenuOption: models.MenuOption{ID: "milk", Name: "Milk", Required: true, MaxChoices: 1},
		Choices:    []models.MenuChoice{{ID: "oat", Name: "Oat"}, {ID: "whole", Name: "Whole"}},
	}
	syrup := models.MenuOptionWithChoices{
		MenuOption: models.MenuOption{ID: "syrup", Name: "Syrup", Required: false, MaxChoices: 2},
		Choices:    []models.MenuChoice{{ID: "vanilla", Name: "Vanilla"}, {ID: "caramel", Name: "Caramel"}},
	}
	latte := models.MenuItemWithOptions{
		MenuItem: models.MenuItem{ID: "latte", Name: "Latte"},
		Options:  []models.MenuOptionWithChoices{milk, syrup},
	}

	tests := []struct {
		name       string
		item       models.MenuItemWithOptions
		selections []models.Selection
		wantOK     bool
	}{
		{
			name:       "valid set",
			item:       latte,
			selections: []models.Selection{{Option: "milk", Choice: "oat"}},
			wantOK:     true,
		},
		{
			name:       "required option missing",
			item:       latte,
			selections: nil,
			wantOK:     false,
		},
		{
			name: "max choices exceeded",
			item: latte,
			selections: []models.Selection{
				{Option: "milk", Choice: "oat"},
				{Option: "milk", Choice: "whole"},
			},
			wantOK: false,
		},
		{
			name: "repeat allowed under max choices",
			item: latte,
			selections: []models.Selection{
				{Option: "milk", Choice: "oat"},
				{Option: "syrup", Choice: "vanilla"},
				{Option: "syrup", Choice: "caramel"},
			},
			wantOK: true,
		},
		{
			name:       "unknown option",
			item:       latte,
			selections: []models.Selection{{Option: "size", Choice: "large"}},
			wantOK:     false,
		},
		{
			name: "choice from wrong option",
			item: latte,
			selections: []models.Selection{
				{Option: "milk", Choice: "vanilla"},
			},
			wantOK: false,
		},
		{
			name: "degraded item passes through",
			item: models.MenuItemWithOptions{
				MenuItem:           models.MenuItem{ID: "latte", Name: "Latte"},
				OptionsFetchFailed: true,
			},
			selections: []models.Selection{{Option: "milk", Choice: "oat"}},
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Precheck(tt.item, tt.selections)
			if result.OK != tt.wantOK {
				t.Errorf("Precheck() = %+v, wantOK %v", result, tt.wantOK)
			}
		})
	}
}
