package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// EventPublisher appends domain events for realtime delivery.
type EventPublisher interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// Handler handles HTTP requests for the kanban pipeline.
type Handler struct {
	repo   Repository
	events EventPublisher
	logger *logging.Logger
}

// NewHandler creates a new leads handler. events may be nil.
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

// Create handles POST /admin/leads requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "name", lead.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// List handles GET /admin/leads requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListLeadsFilter{
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
	if stage := r.URL.Query().Get("stage"); stage != "" {
		if !IsValidStage(stage) {
			http.Error(w, ErrInvalidStage.Error(), http.StatusBadRequest)
			return
		}
		filter.Stage = stage
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	response := ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Get handles GET /admin/leads/{leadID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get lead", "error", err, "id", id)
		http.Error(w, "failed to get lead", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

// MoveStageRequest is the request body for moving a lead between columns.
type MoveStageRequest struct {
	Stage string `json:"stage"`
}

// MoveStage handles PATCH /admin/leads/{leadID}/stage requests
func (h *Handler) MoveStage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")

	var req MoveStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.UpdateStage(r.Context(), id, req.Stage)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrLeadNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("failed to move lead", "error", err, "id", id)
			http.Error(w, "failed to move lead", http.StatusInternalServerError)
		}
		return
	}

	if h.events != nil {
		payload := map[string]string{"lead_id": lead.ID, "stage": lead.Stage}
		if _, err := h.events.Insert(r.Context(), "lead.stage_changed", payload); err != nil {
			h.logger.Error("failed to publish stage event", "error", err, "lead_id", lead.ID)
		}
	}

	h.logger.Info("lead moved", "id", lead.ID, "stage", lead.Stage)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}
