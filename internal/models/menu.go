package models

// MenuItem is an immutable catalog entry, created by the remote catalog.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// MenuOption belongs to exactly one menu item. If Required, any valid
// selection set must pick at least one choice from it. MaxChoices >= 1.
type MenuOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	MaxChoices int    `json:"maxChoices"`
}

// MenuChoice belongs to exactly one menu option.
type MenuChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MenuOptionWithChoices is an option together with its assembled choices.
// ChoicesFetchFailed marks a degraded entry: the choices fetch failed and the
// empty list must not be read as "option has no choices".
type MenuOptionWithChoices struct {
	MenuOption
	Choices            []MenuChoice `json:"choices"`
	ChoicesFetchFailed bool         `json:"-"`
}

// MenuItemWithOptions is the denormalized view the validator and UI operate
// on: an item plus its options, each with choices, in server order.
// OptionsFetchFailed marks a degraded entry at the item level.
type MenuItemWithOptions struct {
	MenuItem
	Options            []MenuOptionWithChoices `json:"options"`
	OptionsFetchFailed bool                    `json:"-"`
}

// Selection is one user pick inside a selection set. The same option id may
// appear more than once only when the owning option permits maxChoices > 1.
type Selection struct {
	Option string `json:"option"`
	Choice string `json:"choice"`
}

// SelectionWithNames carries display-name annotations for order lines.
type SelectionWithNames struct {
	Option            string `json:"option"`
	Choice            string `json:"choice"`
	DisplayOptionName string `json:"displayOptionName"`
	DisplayChoiceName string `json:"displayChoiceName"`
}

// ValidationResult is one row of the selection-set validation response.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
