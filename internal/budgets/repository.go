package budgets

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows budget listings.
type ListFilter struct {
	Status string
	LeadID string
	Limit  int
	Offset int
}

// Repository defines the interface for budget storage.
type Repository interface {
	Create(ctx context.Context, req *CreateBudgetRequest) (*Budget, error)
	GetByID(ctx context.Context, id string) (*Budget, error)
	List(ctx context.Context, filter ListFilter) ([]*Budget, error)
	UpdateStatus(ctx context.Context, id, status string) (*Budget, error)
}

// InMemoryRepository is an in-memory Repository used in tests and local runs.
type InMemoryRepository struct {
	mu      sync.RWMutex
	budgets map[string]*Budget
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{budgets: make(map[string]*Budget)}
}

// Create stores a new budget with its computed total.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateBudgetRequest) (*Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	budget := &Budget{
		ID:            uuid.NewString(),
		Number:        req.Number,
		LeadID:        req.LeadID,
		Items:         append([]BudgetItem(nil), req.Items...),
		DiscountCents: req.DiscountCents,
		TotalCents:    Total(req.Items, req.DiscountCents),
		Status:        StatusDraft,
		ValidUntil:    req.ValidUntil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	r.mu.Lock()
	r.budgets[budget.ID] = budget
	r.mu.Unlock()

	return budget, nil
}

// GetByID retrieves a budget by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	budget, ok := r.budgets[id]
	if !ok {
		return nil, ErrBudgetNotFound
	}
	copied := *budget
	return &copied, nil
}

// List returns budgets matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Budget
	for _, budget := range r.budgets {
		if filter.Status != "" && budget.Status != filter.Status {
			continue
		}
		if filter.LeadID != "" && budget.LeadID != filter.LeadID {
			continue
		}
		copied := *budget
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateStatus transitions the budget status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string) (*Budget, error) {
	switch status {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
	default:
		return nil, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	budget, ok := r.budgets[id]
	if !ok {
		return nil, ErrBudgetNotFound
	}
	budget.Status = status
	budget.UpdatedAt = time.Now().UTC()
	copied := *budget
	return &copied, nil
}
