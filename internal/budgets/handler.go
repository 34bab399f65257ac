package budgets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/internal/leads"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// EventPublisher appends domain events for realtime delivery.
type EventPublisher interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// Mailer delivers a budget summary to the lead's email address.
type Mailer interface {
	SendBudgetEmail(ctx context.Context, to, clientName, budgetNumber string, totalCents int64) error
}

// LeadDirectory resolves the contact details of the lead a budget belongs to.
type LeadDirectory interface {
	GetByID(ctx context.Context, id string) (*leads.Lead, error)
}

// Handler handles HTTP requests for budgets.
type Handler struct {
	repo    Repository
	events  EventPublisher
	mailer  Mailer
	leadDir LeadDirectory
	logger  *logging.Logger
}

// NewHandler creates a new budgets handler. events may be nil.
func NewHandler(repo Repository, events EventPublisher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// WithMailer enables budget emails when a budget moves to "sent". The lead
// directory supplies the recipient address.
func (h *Handler) WithMailer(mailer Mailer, dir LeadDirectory) *Handler {
	h.mailer = mailer
	h.leadDir = dir
	return h
}

// Create handles POST /admin/budgets requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	budget, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create budget", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("budget created", "id", budget.ID, "number", budget.Number, "total_cents", budget.TotalCents)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(budget)
}

// ListBudgetsResponse is the response for listing budgets
type ListBudgetsResponse struct {
	Budgets []*Budget `json:"budgets"`
	Count   int       `json:"count"`
	Offset  int       `json:"offset"`
	Limit   int       `json:"limit"`
}

// List handles GET /admin/budgets requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		switch status {
		case StatusDraft, StatusSent, StatusApproved, StatusRejected:
			filter.Status = status
		default:
			http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
			return
		}
	}
	filter.LeadID = r.URL.Query().Get("lead_id")

	budgets, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list budgets", "error", err)
		http.Error(w, "failed to list budgets", http.StatusInternalServerError)
		return
	}

	response := ListBudgetsResponse{
		Budgets: budgets,
		Count:   len(budgets),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Get handles GET /admin/budgets/{budgetID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "budgetID")
	budget, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get budget", "error", err, "id", id)
		http.Error(w, "failed to get budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budget)
}

// mailBudget sends the quote summary to the lead. Delivery is best-effort:
// a failed email never fails the status transition.
func (h *Handler) mailBudget(ctx context.Context, budget *Budget) {
	if h.mailer == nil || h.leadDir == nil || budget.LeadID == "" {
		return
	}

	lead, err := h.leadDir.GetByID(ctx, budget.LeadID)
	if err != nil {
		h.logger.Error("failed to resolve lead for budget email", "error", err, "budget_id", budget.ID)
		return
	}
	if lead.Email == "" {
		return
	}

	if err := h.mailer.SendBudgetEmail(ctx, lead.Email, lead.Name, budget.Number, budget.TotalCents); err != nil {
		h.logger.Error("failed to send budget email", "error", err, "budget_id", budget.ID)
		return
	}
	h.logger.Info("budget email sent", "budget_id", budget.ID, "to", lead.Email)
}

// UpdateStatusRequest is the request body for status transitions.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /admin/budgets/{budgetID}/status requests
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "budgetID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	budget, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrBudgetNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("failed to update budget status", "error", err, "id", id)
			http.Error(w, "failed to update budget", http.StatusInternalServerError)
		}
		return
	}

	if budget.Status == StatusSent {
		h.mailBudget(r.Context(), budget)
	}

	if h.events != nil && (budget.Status == StatusApproved || budget.Status == StatusRejected) {
		payload := map[string]string{"budget_id": budget.ID, "status": budget.Status}
		if _, err := h.events.Insert(r.Context(), "budget.status_changed", payload); err != nil {
			h.logger.Error("failed to publish budget event", "error", err, "budget_id", budget.ID)
		}
	}

	h.logger.Info("budget status updated", "id", budget.ID, "status", budget.Status)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budget)
}
