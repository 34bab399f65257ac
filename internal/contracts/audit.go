package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of contract audit event.
type AuditEventType string

const (
	// EventContractSent is logged when the signing link is delivered.
	EventContractSent AuditEventType = "contract.sent"
	// EventContractViewed is logged when the signing page is opened.
	EventContractViewed AuditEventType = "contract.viewed"
	// EventSignatureCaptured is logged for each captured signature image.
	EventSignatureCaptured AuditEventType = "contract.signature_captured"
	// EventContractSigned is logged when the contract reaches signed status.
	EventContractSigned AuditEventType = "contract.signed"
)

// AuditEvent is an immutable entry in the contract signature audit trail.
type AuditEvent struct {
	ID         string          `json:"id"`
	EventType  AuditEventType  `json:"event_type"`
	ContractID string          `json:"contract_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditDetails carries event-specific context.
type AuditDetails struct {
	SignerType string `json:"signer_type,omitempty"`
	SignerName string `json:"signer_name,omitempty"`
	RemoteIP   string `json:"remote_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
}

// AuditTrail persists contract audit events.
type AuditTrail struct {
	db *sql.DB
}

// NewAuditTrail creates a new audit trail service.
func NewAuditTrail(db *sql.DB) *AuditTrail {
	return &AuditTrail{db: db}
}

// LogEvent records a contract audit event.
func (s *AuditTrail) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO contract_audit_events (id, event_type, contract_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.ContractID,
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("contracts: failed to log audit event: %w", err)
	}
	return nil
}

// LogSent records delivery of the signing link over a channel.
func (s *AuditTrail) LogSent(ctx context.Context, contractID, channel, recipient string) error {
	details, _ := json.Marshal(AuditDetails{Channel: channel, Recipient: recipient})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventContractSent,
		ContractID: contractID,
		Details:    details,
	})
}

// LogViewed records an open of the public signing page.
func (s *AuditTrail) LogViewed(ctx context.Context, contractID, remoteIP, userAgent string) error {
	details, _ := json.Marshal(AuditDetails{RemoteIP: remoteIP, UserAgent: userAgent})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventContractViewed,
		ContractID: contractID,
		Details:    details,
	})
}

// LogSignatureCaptured records a captured signature with request context.
func (s *AuditTrail) LogSignatureCaptured(ctx context.Context, contractID string, sig CapturedSignature, remoteIP, userAgent string) error {
	details, _ := json.Marshal(AuditDetails{
		SignerType: string(sig.SignerType),
		SignerName: sig.Name,
		RemoteIP:   remoteIP,
		UserAgent:  userAgent,
	})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventSignatureCaptured,
		ContractID: contractID,
		Details:    details,
	})
}

// LogSigned records the transition to signed status.
func (s *AuditTrail) LogSigned(ctx context.Context, contractID string) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventContractSigned,
		ContractID: contractID,
	})
}

// AuditFilter specifies criteria for querying the trail.
type AuditFilter struct {
	ContractID string
	EventType  AuditEventType
	Limit      int
}

// QueryEvents retrieves audit events for a contract, newest first.
func (s *AuditTrail) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, contract_id, details, created_at
		FROM contract_audit_events
		WHERE contract_id = $1
	`
	args := []interface{}{filter.ContractID}
	if filter.EventType != "" {
		query += ` AND event_type = $2`
		args = append(args, filter.EventType)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("contracts: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.ContractID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("contracts: failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
