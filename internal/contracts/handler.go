package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// AuditLogger records signature audit trail entries.
type AuditLogger interface {
	LogSent(ctx context.Context, contractID, channel, recipient string) error
	LogViewed(ctx context.Context, contractID, remoteIP, userAgent string) error
	LogSignatureCaptured(ctx context.Context, contractID string, sig CapturedSignature, remoteIP, userAgent string) error
	LogSigned(ctx context.Context, contractID string) error
	QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
}

// Uploader stores signature image payloads and returns the object key.
type Uploader interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Notifier delivers the signing link to the client and reports which
// channels succeeded.
type Notifier interface {
	ContractReady(ctx context.Context, contract *Contract, signingURL string) ([]string, error)
}

// EventPublisher appends domain events for realtime delivery.
type EventPublisher interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// MetricsRecorder counts captured signatures for the /metrics endpoint.
type MetricsRecorder interface {
	ObserveSignature(signerType string)
}

// Handler handles HTTP requests for contracts and the public signing flow.
type Handler struct {
	repo          Repository
	audit         AuditLogger
	uploader      Uploader
	notifier      Notifier
	events        EventPublisher
	metrics       MetricsRecorder
	publicBaseURL string
	logger        *logging.Logger
}

// NewHandler creates a new contracts handler. Audit, uploader, notifier and
// events are optional; nil dependencies disable the corresponding side effect.
func NewHandler(repo Repository, audit AuditLogger, uploader Uploader, notifier Notifier, events EventPublisher, publicBaseURL string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:          repo,
		audit:         audit,
		uploader:      uploader,
		notifier:      notifier,
		events:        events,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// WithMetrics attaches a metrics recorder.
func (h *Handler) WithMetrics(m MetricsRecorder) *Handler {
	h.metrics = m
	return h
}

// Create handles POST /admin/contracts requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode contract request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contract, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create contract", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("contract created", "id", contract.ID, "number", contract.Number)
	writeJSON(w, http.StatusCreated, contract)
}

// ListContractsResponse is the response for listing contracts.
type ListContractsResponse struct {
	Contracts []*Contract `json:"contracts"`
	Count     int         `json:"count"`
}

// List handles GET /admin/contracts requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = status
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

	contracts, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list contracts", "error", err)
		http.Error(w, "failed to list contracts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListContractsResponse{Contracts: contracts, Count: len(contracts)})
}

// Send handles POST /admin/contracts/{contractID}/send requests: it delivers
// the signing link and moves the contract to sent.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	contract, err := h.repo.GetByID(r.Context(), contractID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	if contract.Status == StatusSigned || contract.Status == StatusCancelled {
		http.Error(w, "contract is not sendable", http.StatusConflict)
		return
	}

	signingURL := h.publicBaseURL + "/sign/" + contract.SigningToken
	var channels []string
	if h.notifier != nil {
		channels, err = h.notifier.ContractReady(r.Context(), contract, signingURL)
		if err != nil {
			h.logger.Error("failed to notify contract", "error", err, "contract_id", contract.ID)
			http.Error(w, "failed to deliver signing link", http.StatusBadGateway)
			return
		}
	}

	if err := h.repo.UpdateStatus(r.Context(), contract.ID, StatusSent, nil); err != nil {
		h.logger.Error("failed to mark contract sent", "error", err, "contract_id", contract.ID)
		http.Error(w, "failed to update contract", http.StatusInternalServerError)
		return
	}

	if h.audit != nil {
		for _, channel := range channels {
			recipient := contract.ClientPhone
			if channel == "email" {
				recipient = contract.ClientEmail
			}
			if err := h.audit.LogSent(r.Context(), contract.ID, channel, recipient); err != nil {
				h.logger.Error("failed to log sent event", "error", err, "contract_id", contract.ID)
			}
		}
	}

	h.logger.Info("contract sent", "id", contract.ID, "channels", channels)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      StatusSent,
		"signing_url": signingURL,
		"channels":    channels,
	})
}

// SigningPageResponse is the public payload backing the signing page.
type SigningPageResponse struct {
	Contract  *Contract           `json:"contract"`
	Positions []SignaturePosition `json:"positions"`
}

// GetByToken handles GET /sign/{token} requests.
func (h *Handler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	contract, err := h.repo.GetByToken(r.Context(), token)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	positions, err := h.repo.ListPositions(r.Context(), contract.ID)
	if err != nil {
		h.logger.Error("failed to list positions", "error", err, "contract_id", contract.ID)
		http.Error(w, "failed to load contract", http.StatusInternalServerError)
		return
	}

	if h.audit != nil {
		if err := h.audit.LogViewed(r.Context(), contract.ID, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Error("failed to log viewed event", "error", err, "contract_id", contract.ID)
		}
	}

	writeJSON(w, http.StatusOK, SigningPageResponse{Contract: contract, Positions: positions})
}

// CaptureSignature handles POST /sign/{token}/signatures requests.
func (h *Handler) CaptureSignature(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	contract, err := h.repo.GetByToken(r.Context(), token)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	if contract.Status == StatusSigned {
		http.Error(w, ErrAlreadySigned.Error(), http.StatusConflict)
		return
	}
	if contract.Status == StatusCancelled {
		http.Error(w, ErrContractCancelled.Error(), http.StatusConflict)
		return
	}

	var req CaptureSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	sig := CapturedSignature{
		SignerType:    req.SignerType,
		Name:          req.Name,
		SignatureData: req.SignatureData,
		SignedAt:      &now,
	}

	if h.uploader != nil {
		key := fmt.Sprintf("contracts/%s/signatures/%s-%s", contract.ID, sig.SignerType, uuid.NewString())
		if _, err := h.uploader.Put(r.Context(), key, "application/octet-stream", []byte(sig.SignatureData)); err != nil {
			h.logger.Error("failed to store signature image", "error", err, "contract_id", contract.ID)
			http.Error(w, "failed to store signature", http.StatusBadGateway)
			return
		}
	}

	if err := h.repo.InsertSignature(r.Context(), contract.ID, sig); err != nil {
		respondRepoError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveSignature(string(sig.SignerType))
	}

	if h.audit != nil {
		if err := h.audit.LogSignatureCaptured(r.Context(), contract.ID, sig, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Error("failed to log capture event", "error", err, "contract_id", contract.ID)
		}
	}

	status := contract.Status
	// The contract completes when the counterparty signs.
	if sig.SignerType == SignerClient {
		if err := h.repo.UpdateStatus(r.Context(), contract.ID, StatusSigned, &now); err != nil {
			h.logger.Error("failed to mark contract signed", "error", err, "contract_id", contract.ID)
			http.Error(w, "failed to update contract", http.StatusInternalServerError)
			return
		}
		status = StatusSigned
		if h.audit != nil {
			if err := h.audit.LogSigned(r.Context(), contract.ID); err != nil {
				h.logger.Error("failed to log signed event", "error", err, "contract_id", contract.ID)
			}
		}
		if h.events != nil {
			payload := map[string]string{"contract_id": contract.ID, "number": contract.Number}
			if _, err := h.events.Insert(r.Context(), "contract.signed", payload); err != nil {
				h.logger.Error("failed to publish signed event", "error", err, "contract_id", contract.ID)
			}
		}
	}

	h.logger.Info("signature captured", "contract_id", contract.ID, "signer_type", sig.SignerType)
	writeJSON(w, http.StatusCreated, map[string]string{"status": status})
}

// Placements handles GET /sign/{token}/placements requests, returning
// captured signatures grouped by page for rendering.
func (h *Handler) Placements(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	contract, err := h.repo.GetByToken(r.Context(), token)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	positions, err := h.repo.ListPositions(r.Context(), contract.ID)
	if err != nil {
		h.logger.Error("failed to list positions", "error", err, "contract_id", contract.ID)
		http.Error(w, "failed to load placements", http.StatusInternalServerError)
		return
	}
	signatures, err := h.repo.ListSignatures(r.Context(), contract.ID)
	if err != nil {
		h.logger.Error("failed to list signatures", "error", err, "contract_id", contract.ID)
		http.Error(w, "failed to load placements", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MapSignaturesToPositions(signatures, positions))
}

// AuditEvents handles GET /admin/contracts/{contractID}/audit requests.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		http.Error(w, "audit trail disabled", http.StatusNotImplemented)
		return
	}
	contractID := chi.URLParam(r, "contractID")
	events, err := h.audit.QueryEvents(r.Context(), AuditFilter{ContractID: contractID, Limit: 200})
	if err != nil {
		h.logger.Error("failed to query audit events", "error", err, "contract_id", contractID)
		http.Error(w, "failed to query audit events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func respondRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrContractNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
