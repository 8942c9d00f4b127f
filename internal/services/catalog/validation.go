package catalog

import (
	"fmt"

	"latte-lab/internal/models"
)

// ValidateSelections applies the cardinality and requiredness rules of an
// item's options to a submitted selection set. It is the authoritative
// check: options carry their complete choice lists.
func ValidateSelections(options []models.MenuOptionWithChoices, selections []models.Selection) models.ValidationResult {
	byID := make(map[string]models.MenuOptionWithChoices, len(options))
	for _, option := range options {
		byID[option.ID] = option
	}

	counts := make(map[string]int)
	for _, sel := range selections {
		option, ok := byID[sel.Option]
		if !ok {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s does not belong to this item", sel.Option)}
		}

		found := false
		for _, choice := range option.Choices {
			if choice.ID == sel.Choice {
				found = true
				break
			}
		}
		if !found {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Choice %s is not available for option %s", sel.Choice, option.Name)}
		}

		counts[sel.Option]++
		if counts[sel.Option] > option.MaxChoices {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s allows at most %d choices", option.Name, option.MaxChoices)}
		}
	}

	for _, option := range options {
		if option.Required && counts[option.ID] == 0 {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s requires at least 1 choice", option.Name)}
		}
	}

	return models.ValidationResult{OK: true}
}
