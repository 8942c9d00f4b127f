package selection

import (
	"context"
	"errors"
	"fmt"

	"latte-lab/internal/gateway"
	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

// Fixed user-facing reasons for the non-domain failure classes.
const (
	reasonUnexpectedFormat = "Unexpected response format"
	reasonValidationFailed = "Validation failed"
)

// Checker is the remote validation capability the validator consumes.
type Checker interface {
	ValidateSelectionSet(ctx context.Context, itemID string, selections []models.Selection) ([]models.ValidationResult, error)
}

// Validator normalizes the server's selection-set validation responses into
// one consistent success/failure contract. Validation failure is always a
// normal negative result, never an error to the caller.
type Validator struct {
	checker Checker
	logger  *logger.Logger
}

// NewValidator creates a selection validator.
func NewValidator(checker Checker, log *logger.Logger) *Validator {
	return &Validator{
		checker: checker,
		logger:  log,
	}
}

// Validate forwards the raw selection set for authoritative server
// validation. The server's first result row is relayed verbatim; an error
// envelope surfaces its reason; every other outcome maps to a fixed reason.
func (v *Validator) Validate(ctx context.Context, itemID string, selections []models.Selection) models.ValidationResult {
	requestID := logger.GenerateRequestID()

	results, err := v.checker.ValidateSelectionSet(ctx, itemID, selections)
	if err != nil {
		if reason, ok := gateway.IsDomainError(err); ok {
			return models.ValidationResult{OK: false, Reason: reason}
		}
		if errors.Is(err, gateway.ErrMalformed) {
			return models.ValidationResult{OK: false, Reason: reasonUnexpectedFormat}
		}
		v.logger.Error("selection_validation_failed", fmt.Sprintf("Selection validation for item %s failed", itemID), requestID, err, map[string]interface{}{
			"item": itemID,
		})
		return models.ValidationResult{OK: false, Reason: reasonValidationFailed}
	}

	// The server returns validation per submitted set; exactly one result is
	// relevant. An empty list is a protocol violation.
	if len(results) == 0 {
		return models.ValidationResult{OK: false, Reason: reasonUnexpectedFormat}
	}

	return results[0]
}

// Precheck validates a selection set against an assembled item before any
// network call. It is a convenience filter only: the server stays
// authoritative, and degraded branches (failed option or choice fetches)
// are passed through rather than rejected.
func Precheck(item models.MenuItemWithOptions, selections []models.Selection) models.ValidationResult {
	if item.OptionsFetchFailed {
		return models.ValidationResult{OK: true}
	}

	options := make(map[string]models.MenuOptionWithChoices, len(item.Options))
	for _, option := range item.Options {
		options[option.ID] = option
	}

	counts := make(map[string]int)
	for _, sel := range selections {
		option, ok := options[sel.Option]
		if !ok {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s does not belong to item %s", sel.Option, item.Name)}
		}

		if !option.ChoicesFetchFailed {
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
		}

		counts[sel.Option]++
		if counts[sel.Option] > option.MaxChoices {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s allows at most %d choices", option.Name, option.MaxChoices)}
		}
	}

	for _, option := range item.Options {
		if option.Required && counts[option.ID] == 0 {
			return models.ValidationResult{OK: false, Reason: fmt.Sprintf("Option %s requires at least 1 choice", option.Name)}
		}
	}

	return models.ValidationResult{OK: true}
}
