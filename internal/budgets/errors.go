package budgets

import "errors"

var (
	// ErrMissingNumber is returned when the budget number is empty.
	ErrMissingNumber = errors.New("budget number is required")

	// ErrNoItems is returned when the budget has no line items.
	ErrNoItems = errors.New("at least one item is required")

	// ErrInvalidItem is returned for items with empty description, zero
	// quantity or negative unit price.
	ErrInvalidItem = errors.New("invalid budget item")

	// ErrInvalidDiscount is returned for negative discounts.
	ErrInvalidDiscount = errors.New("discount must not be negative")

	// ErrInvalidStatus is returned for unknown status transitions.
	ErrInvalidStatus = errors.New("invalid budget status")

	// ErrBudgetNotFound is returned when a budget is not found.
	ErrBudgetNotFound = errors.New("budget not found")
)
