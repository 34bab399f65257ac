package budgets

import (
	"strings"
	"time"
)

// Budget lifecycle states.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// BudgetItem is one line of a quote.
type BudgetItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
}

// Budget is a quote presented to a lead.
type Budget struct {
	ID            string       `json:"id"`
	Number        string       `json:"number"`
	LeadID        string       `json:"lead_id,omitempty"`
	Items         []BudgetItem `json:"items"`
	DiscountCents int64        `json:"discount_cents"`
	TotalCents    int64        `json:"total_cents"`
	Status        string       `json:"status"`
	ValidUntil    *time.Time   `json:"valid_until,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CreateBudgetRequest is the admin request body for creating a budget.
type CreateBudgetRequest struct {
	Number        string       `json:"number"`
	LeadID        string       `json:"lead_id"`
	Items         []BudgetItem `json:"items"`
	DiscountCents int64        `json:"discount_cents"`
	ValidUntil    *time.Time   `json:"valid_until"`
}

// Validate validates the create budget request.
func (r *CreateBudgetRequest) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return ErrMissingNumber
	}
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity < 1 || item.UnitCents < 0 {
			return ErrInvalidItem
		}
	}
	if r.DiscountCents < 0 {
		return ErrInvalidDiscount
	}
	return nil
}

// Total computes the quote total: item subtotals minus discount, never
// below zero.
func Total(items []BudgetItem, discountCents int64) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += int64(item.Quantity) * item.UnitCents
	}
	total := subtotal - discountCents
	if total < 0 {
		return 0
	}
	return total
}
