package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores contracts in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("contracts: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts the contract and its placement records in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateContractRequest) (*Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("contracts: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.New()
	token := uuid.NewString()
	query := `
		INSERT INTO contracts (id, number, lead_id, client_name, client_email, client_phone, status, signing_token)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := tx.QueryRow(ctx, query,
		id,
		req.Number,
		req.LeadID,
		req.ClientName,
		req.ClientEmail,
		req.ClientPhone,
		StatusDraft,
		token,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("contracts: insert failed: %w", err)
	}

	posQuery := `
		INSERT INTO signature_positions (id, contract_id, signer_type, page_number, x_position, y_position, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, p := range req.Positions {
		if _, err := tx.Exec(ctx, posQuery,
			uuid.New(), id, string(p.SignerType), p.PageNumber, p.X, p.Y, p.Width, p.Height,
		); err != nil {
			return nil, fmt.Errorf("contracts: insert position failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("contracts: commit: %w", err)
	}

	return &Contract{
		ID:           id.String(),
		Number:       req.Number,
		LeadID:       req.LeadID,
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		ClientPhone:  req.ClientPhone,
		Status:       StatusDraft,
		SigningToken: token,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

const contractColumns = `
	id, number, COALESCE(lead_id::text, ''), client_name, client_email, client_phone,
	status, signing_token, COALESCE(pdf_key, ''), signed_at, created_at, updated_at
`

// GetByID fetches a contract by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Contract, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	return scanContract(row)
}

// GetByToken fetches a contract by its public signing token.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*Contract, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE signing_token = $1`, token)
	return scanContract(row)
}

// List returns contracts matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("contracts: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	return out, rows.Err()
}

// ListPositions returns placement records ordered by ascending page number.
func (r *PostgresRepository) ListPositions(ctx context.Context, contractID string) ([]SignaturePosition, error) {
	query := `
		SELECT id, contract_id, signer_type, page_number, x_position, y_position, width, height
		FROM signature_positions
		WHERE contract_id = $1
		ORDER BY page_number, created_at
	`
	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("contracts: list positions failed: %w", err)
	}
	defer rows.Close()

	var positions []SignaturePosition
	for rows.Next() {
		var p SignaturePosition
		var signerType string
		if err := rows.Scan(&p.ID, &p.ContractID, &signerType, &p.PageNumber, &p.X, &p.Y, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("contracts: scan position failed: %w", err)
		}
		p.SignerType = SignerType(signerType)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// InsertSignature records a captured signature.
func (r *PostgresRepository) InsertSignature(ctx context.Context, contractID string, sig CapturedSignature) error {
	query := `
		INSERT INTO captured_signatures (id, contract_id, signer_type, signer_name, signature_data, signed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	signedAt := sig.SignedAt
	if signedAt == nil {
		now := time.Now().UTC()
		signedAt = &now
	}
	if _, err := r.pool.Exec(ctx, query,
		uuid.New(), contractID, string(sig.SignerType), sig.Name, sig.SignatureData, *signedAt,
	); err != nil {
		return fmt.Errorf("contracts: insert signature failed: %w", err)
	}
	return nil
}

// ListSignatures returns captured signatures in capture order.
func (r *PostgresRepository) ListSignatures(ctx context.Context, contractID string) ([]CapturedSignature, error) {
	query := `
		SELECT signer_type, signer_name, signature_data, signed_at
		FROM captured_signatures
		WHERE contract_id = $1
		ORDER BY signed_at, id
	`
	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("contracts: list signatures failed: %w", err)
	}
	defer rows.Close()

	var sigs []CapturedSignature
	for rows.Next() {
		var sig CapturedSignature
		var signerType string
		var signedAt time.Time
		if err := rows.Scan(&signerType, &sig.Name, &sig.SignatureData, &signedAt); err != nil {
			return nil, fmt.Errorf("contracts: scan signature failed: %w", err)
		}
		sig.SignerType = SignerType(signerType)
		sig.SignedAt = &signedAt
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

// UpdateStatus transitions a contract's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string, signedAt *time.Time) error {
	query := `
		UPDATE contracts
		SET status = $2, signed_at = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, status, signedAt)
	if err != nil {
		return fmt.Errorf("contracts: update status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrContractNotFound
	}
	return nil
}

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	var signedAt *time.Time
	err := row.Scan(
		&c.ID,
		&c.Number,
		&c.LeadID,
		&c.ClientName,
		&c.ClientEmail,
		&c.ClientPhone,
		&c.Status,
		&c.SigningToken,
		&c.PDFKey,
		&signedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contracts: select failed: %w", err)
	}
	c.SignedAt = signedAt
	return &c, nil
}
