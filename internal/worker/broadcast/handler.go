package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/internal/phone"
	"github.com/rbertolino-dev/flow-sub011/internal/templates"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// Enqueuer queues broadcast jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, number, body string) (uuid.UUID, error)
}

// Handler exposes the admin broadcast endpoint.
type Handler struct {
	store  Enqueuer
	logger *logging.Logger
}

func NewHandler(store Enqueuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Variable is one named substitution applied to the broadcast text.
type Variable struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// EnqueueRequest is the request body for queueing a broadcast.
type EnqueueRequest struct {
	Numbers   []string   `json:"numbers"`
	Text      string     `json:"text"`
	Variables []Variable `json:"variables,omitempty"`
}

// EnqueueResponse reports the queued jobs.
type EnqueueResponse struct {
	JobIDs []string `json:"job_ids"`
	Count  int      `json:"count"`
}

// Enqueue handles POST /admin/messaging/broadcast requests
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Numbers) == 0 || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "numbers and text are required", http.StatusBadRequest)
		return
	}

	var vars templates.Vars
	for _, v := range req.Variables {
		if v.Value == nil {
			vars = vars.SetMissing(v.Name)
			continue
		}
		vars = vars.Set(v.Name, *v.Value)
	}
	body := templates.Substitute(req.Text, vars)

	jobIDs := make([]string, 0, len(req.Numbers))
	for _, number := range req.Numbers {
		if phone.Normalize(number) == "" {
			continue
		}
		id, err := h.store.Enqueue(r.Context(), phone.DialablePrefixForm(number), body)
		if err != nil {
			h.logger.Error("failed to enqueue broadcast job", "error", err, "number", number)
			http.Error(w, "failed to enqueue broadcast", http.StatusInternalServerError)
			return
		}
		jobIDs = append(jobIDs, id.String())
	}

	h.logger.Info("broadcast enqueued", "jobs", len(jobIDs))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(EnqueueResponse{JobIDs: jobIDs, Count: len(jobIDs)})
}
