package catalog

import (
	"testing"

	"latte-lab/internal/models"
)

func TestValidateSelections(t *testing.T) {
	options := []models.MenuOptionWithChoices{
		{
			MenuOption: models.MenuOption{ID: "milk", Name: "Milk", Required: true, MaxChoices: 1},
			Choices:    []models.MenuChoice{{ID: "oat", Name: "Oat"}, {ID: "whole", Name: "Whole"}},
		},
		{
			MenuOption: models.MenuOption{ID: "syrup", Name: "Syrup", Required: false, MaxChoices: 2},
			Choices:    []models.MenuChoice{{ID: "vanilla", Name: "Vanilla"}, {ID: "caramel", Name: "Caramel"}},
		},
	}

	tests := []struct {
		name       string
		selections []models.Selection
		wantOK     bool
	}{
		{
			name:       "valid single selection",
			selections: []models.Selection{{Option: "milk", Choice: "oat"}},
			wantOK:     true,
		},
		{
			name:       "empty set fails required option",
			selections: nil,
			wantOK:     false,
		},
		{
			name: "max choices exceeded",
			selections: []models.Selection{
				{Option: "milk", Choice: "oat"},
				{Option: "milk", Choice: "whole"},
			},
			wantOK: false,
		},
		{
			name: "multi-choice option within limit",
			selections: []models.Selection{
				{Option: "milk", Choice: "oat"},
				{Option: "syrup", Choice: "vanilla"},
				{Option: "syrup", Choice: "caramel"},
			},
			wantOK: true,
		},
		{
			name:       "unknown option",
			selections: []models.Selection{{Option: "size", Choice: "large"}},
			wantOK:     false,
		},
		{
			name:       "choice not in option",
			selections: []models.Selection{{Option: "milk", Choice: "vanilla"}},
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSelections(options, tt.selections)
			if result.OK != tt.wantOK {
				t.Errorf("ValidateSelections() = %+v, wantOK %v", result, tt.wantOK)
			}
			if !result.OK && result.Reason == "" {
				t.Error("negative result must carry a displayable reason")
			}
		})
	}
}

func TestValidateSelections_NoOptions(t *testing.T) {
	result := ValidateSelections(nil, nil)
	if !result.OK {
		t.Fatalf("item without options must accept the empty set, got %+v", result)
	}
}
