package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/internal/connstate"
	"github.com/rbertolino-dev/flow-sub011/internal/messaging/evolutionclient"
	"github.com/rbertolino-dev/flow-sub011/internal/phone"
	"github.com/rbertolino-dev/flow-sub011/internal/templates"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// Sender sends WhatsApp messages through the gateway.
type Sender interface {
	SendText(ctx context.Context, req evolutionclient.SendTextRequest) (*evolutionclient.SendTextResponse, error)
	ConnectionState(ctx context.Context) (json.RawMessage, error)
	Instance() string
}

// ChatMirror copies inbound messages into the support inbox.
type ChatMirror interface {
	MirrorInbound(ctx context.Context, number, senderName, text string) error
}

// EventPublisher appends domain events for realtime delivery.
type EventPublisher interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// MetricsRecorder counts messaging traffic for the /metrics endpoint.
type MetricsRecorder interface {
	ObserveWebhook(eventType, status string)
	ObserveOutbound(status string)
	ObserveWebhookLatency(eventType string, seconds float64)
}

// Handler handles admin messaging endpoints and the gateway webhook.
type Handler struct {
	sender       Sender
	store        *Store
	cache        *StatusCache
	mirror       ChatMirror
	events       EventPublisher
	metrics      MetricsRecorder
	webhookToken string
	logger       *logging.Logger
}

// NewHandler creates a messaging handler. store, cache, mirror and events
// may be nil.
func NewHandler(sender Sender, store *Store, cache *StatusCache, mirror ChatMirror, events EventPublisher, webhookToken string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sender:       sender,
		store:        store,
		cache:        cache,
		mirror:       mirror,
		events:       events,
		webhookToken: webhookToken,
		logger:       logger,
	}
}

// WithMetrics attaches a metrics recorder.
func (h *Handler) WithMetrics(m MetricsRecorder) *Handler {
	h.metrics = m
	return h
}

// MessageVariable is one named substitution applied to the message text.
// A null value keeps the placeholder untouched.
type MessageVariable struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// SendMessageRequest is the request body for sending a WhatsApp message.
type SendMessageRequest struct {
	Number    string            `json:"number"`
	Text      string            `json:"text"`
	Variables []MessageVariable `json:"variables,omitempty"`
}

// SendMessageResponse reports the rendered message and the gateway receipt.
type SendMessageResponse struct {
	Number            string `json:"number"`
	Text              string `json:"text"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	ProviderStatus    string `json:"provider_status,omitempty"`
}

// Send handles POST /admin/messaging/send requests
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Number) == "" || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "number and text are required", http.StatusBadRequest)
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
	text := templates.Substitute(req.Text, vars)
	normalized := phone.Normalize(req.Number)

	resp, err := h.sender.SendText(r.Context(), evolutionclient.SendTextRequest{
		Number: phone.DialablePrefixForm(req.Number),
		Text:   text,
	})
	if err != nil {
		h.logger.Error("failed to send message", "error", err, "number", normalized)
		if h.metrics != nil {
			h.metrics.ObserveOutbound("error")
		}
		http.Error(w, "failed to send message", http.StatusBadGateway)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveOutbound("sent")
	}

	if h.store != nil {
		if _, err := h.store.InsertMessage(r.Context(), MessageRecord{
			Number:            normalized,
			Direction:         DirectionOutbound,
			Body:              text,
			ProviderMessageID: resp.Key.ID,
			ProviderStatus:    resp.Status,
		}); err != nil {
			h.logger.Error("failed to persist outbound message", "error", err, "number", normalized)
		}
	}

	h.logger.Info("message sent", "number", normalized, "provider_message_id", resp.Key.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SendMessageResponse{
		Number:            normalized,
		Text:              text,
		ProviderMessageID: resp.Key.ID,
		ProviderStatus:    resp.Status,
	})
}

// InstanceStatusResponse reports the normalized gateway connectivity.
type InstanceStatusResponse struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
	Cached   bool   `json:"cached"`
}

// Status handles GET /admin/messaging/status requests
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	instance := h.sender.Instance()

	if h.cache != nil {
		state, ok, err := h.cache.Get(r.Context(), instance)
		if err != nil {
			h.logger.Error("status cache read failed", "error", err)
		} else if ok {
			writeStatus(w, instance, state, true)
			return
		}
	}

	raw, err := h.sender.ConnectionState(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch connection state", "error", err)
		http.Error(w, "failed to fetch connection state", http.StatusBadGateway)
		return
	}
	state := connstate.ClassifyJSON(raw)

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), instance, state); err != nil {
			h.logger.Error("status cache write failed", "error", err)
		}
	}

	writeStatus(w, instance, state, false)
}

func writeStatus(w http.ResponseWriter, instance string, state connstate.State, cached bool) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(InstanceStatusResponse{
		Instance: instance,
		State:    state.String(),
		Cached:   cached,
	})
}

// HistoryResponse lists the stored conversation with a contact.
type HistoryResponse struct {
	Number   string          `json:"number"`
	Messages []MessageRecord `json:"messages"`
}

// History handles GET /admin/messaging/history requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	number := phone.Normalize(r.URL.Query().Get("number"))
	if number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}
	if h.store == nil {
		http.Error(w, "message history not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	messages, err := h.store.ListByNumber(r.Context(), number, limit)
	if err != nil {
		h.logger.Error("failed to list history", "error", err, "number", number)
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{Number: number, Messages: messages})
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Key struct {
			RemoteJID string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
		Status string `json:"status"`
	} `json:"data"`
}

// Webhook handles POST /webhooks/evolution requests from the gateway.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookToken != "" && r.Header.Get("X-Webhook-Token") != h.webhookToken {
		http.Error(w, "invalid webhook token", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	status := "processed"
	switch payload.Event {
	case "messages.upsert":
		h.handleInbound(r.Context(), payload)
	case "messages.update":
		h.handleStatusUpdate(r.Context(), payload)
	case "connection.update":
		h.handleConnectionUpdate(r.Context(), payload)
	default:
		status = "ignored"
		h.logger.Debug("ignoring webhook event", "event", payload.Event)
	}
	if h.metrics != nil {
		h.metrics.ObserveWebhook(payload.Event, status)
		h.metrics.ObserveWebhookLatency(payload.Event, time.Since(start).Seconds())
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleInbound(ctx context.Context, payload webhookPayload) {
	if payload.Data.Key.FromMe {
		return
	}
	jid := payload.Data.Key.RemoteJID
	if at := strings.Index(jid, "@"); at >= 0 {
		jid = jid[:at]
	}
	number := phone.Normalize(jid)
	text := payload.Data.Message.Conversation
	if text == "" {
		text = payload.Data.Message.ExtendedTextMessage.Text
	}
	if number == "" || text == "" {
		return
	}

	if h.store != nil {
		exists, err := h.store.HasProviderMessage(ctx, payload.Data.Key.ID)
		if err != nil {
			h.logger.Error("failed to check duplicate message", "error", err)
		} else if exists {
			return
		}
		if _, err := h.store.InsertMessage(ctx, MessageRecord{
			Number:            number,
			Direction:         DirectionInbound,
			Body:              text,
			ProviderMessageID: payload.Data.Key.ID,
			ProviderStatus:    "received",
			SenderName:        payload.Data.PushName,
		}); err != nil {
			h.logger.Error("failed to persist inbound message", "error", err, "number", number)
		}
	}

	if h.mirror != nil {
		if err := h.mirror.MirrorInbound(ctx, number, payload.Data.PushName, text); err != nil {
			h.logger.Error("failed to mirror inbound message", "error", err, "number", number)
		}
	}

	if h.events != nil {
		event := map[string]string{
			"number":      number,
			"text":        text,
			"sender_name": payload.Data.PushName,
		}
		if _, err := h.events.Insert(ctx, "message.received", event); err != nil {
			h.logger.Error("failed to publish inbound event", "error", err, "number", number)
		}
	}

	h.logger.Info("inbound message received", "number", number)
}

func (h *Handler) handleStatusUpdate(ctx context.Context, payload webhookPayload) {
	if h.store == nil || payload.Data.Key.ID == "" || payload.Data.Status == "" {
		return
	}
	if err := h.store.UpdateMessageStatus(ctx, payload.Data.Key.ID, strings.ToLower(payload.Data.Status)); err != nil {
		h.logger.Error("failed to update message status", "error", err)
	}
}

func (h *Handler) handleConnectionUpdate(ctx context.Context, payload webhookPayload) {
	if h.cache == nil {
		return
	}
	state := connstate.Classify(map[string]any{"state": payload.Data.Status})
	if err := h.cache.Set(ctx, h.sender.Instance(), state); err != nil {
		h.logger.Error("failed to cache connection update", "error", err)
	}
}
