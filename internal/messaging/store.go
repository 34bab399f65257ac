package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists WhatsApp message history in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates a message store. Returns nil when pool is nil so callers
// can treat persistence as optional.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// MessageRecord is one row in the messages table.
type MessageRecord struct {
	ID                uuid.UUID
	Number            string
	Direction         string
	Body              string
	ProviderMessageID string
	ProviderStatus    string
	SenderName        string
	CreatedAt         time.Time
}

// InsertMessage stores a new inbound or outbound message and returns its id.
func (s *Store) InsertMessage(ctx context.Context, rec MessageRecord) (uuid.UUID, error) {
	query := `
		INSERT INTO messages (
			number, direction, body, provider_message_id, provider_status, sender_name
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id
	`
	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, query, rec.Number, rec.Direction, rec.Body, rec.ProviderMessageID, rec.ProviderStatus, rec.SenderName).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("messaging: insert message: %w", err)
	}
	return id, nil
}

// HasProviderMessage checks whether a message with the provider message id
// exists. Used to drop duplicate webhook deliveries.
func (s *Store) HasProviderMessage(ctx context.Context, providerMessageID string) (bool, error) {
	providerMessageID = strings.TrimSpace(providerMessageID)
	if providerMessageID == "" {
		return false, nil
	}
	query := `
		SELECT 1 FROM messages
		WHERE provider_message_id = $1
		LIMIT 1
	`
	var exists int
	if err := s.pool.QueryRow(ctx, query, providerMessageID).Scan(&exists); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("messaging: check provider message: %w", err)
	}
	return true, nil
}

// UpdateMessageStatus records the delivery status reported by the provider.
func (s *Store) UpdateMessageStatus(ctx context.Context, providerMessageID, status string) error {
	query := `
		UPDATE messages
		SET provider_status = $2,
			updated_at = now()
		WHERE provider_message_id = $1
	`
	_, err := s.pool.Exec(ctx, query, providerMessageID, status)
	if err != nil {
		return fmt.Errorf("messaging: update message status: %w", err)
	}
	return nil
}

// ListByNumber returns the conversation history with a contact, newest
// first.
func (s *Store) ListByNumber(ctx context.Context, number string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, number, direction, body, COALESCE(provider_message_id, ''),
			provider_status, sender_name, created_at
		FROM messages
		WHERE number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, number, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: list by number: %w", err)
	}
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.Direction, &rec.Body, &rec.ProviderMessageID, &rec.ProviderStatus, &rec.SenderName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan message: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
