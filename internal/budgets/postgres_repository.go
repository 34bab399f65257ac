package budgets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores budgets in the relational database. Line items
// are kept as a JSONB document alongside the computed total.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("budgets: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateBudgetRequest) (*Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("budgets: marshal items: %w", err)
	}

	id := uuid.New()
	total := Total(req.Items, req.DiscountCents)
	query := `
		INSERT INTO budgets (id, number, lead_id, items, discount_cents, total_cents, status, valid_until)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Number,
		req.LeadID,
		items,
		req.DiscountCents,
		total,
		StatusDraft,
		req.ValidUntil,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("budgets: insert failed: %w", err)
	}

	return &Budget{
		ID:            id.String(),
		Number:        req.Number,
		LeadID:        req.LeadID,
		Items:         append([]BudgetItem(nil), req.Items...),
		DiscountCents: req.DiscountCents,
		TotalCents:    total,
		Status:        StatusDraft,
		ValidUntil:    req.ValidUntil,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

const budgetColumns = `
	id, number, COALESCE(lead_id::text, ''), items, discount_cents, total_cents,
	status, valid_until, created_at, updated_at
`

// GetByID fetches a budget.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Budget, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id)
	return scanBudget(row)
}

// List returns budgets matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.LeadID != "" {
		query += fmt.Sprintf(` AND lead_id = $%d`, argNum)
		args = append(args, filter.LeadID)
		argNum++
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
		return nil, fmt.Errorf("budgets: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, budget)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a budget's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) (*Budget, error) {
	switch status {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
	default:
		return nil, ErrInvalidStatus
	}
	query := `
		UPDATE budgets
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + budgetColumns
	return scanBudget(r.pool.QueryRow(ctx, query, id, status))
}

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	var items []byte
	var validUntil *time.Time
	err := row.Scan(
		&b.ID,
		&b.Number,
		&b.LeadID,
		&items,
		&b.DiscountCents,
		&b.TotalCents,
		&b.Status,
		&validUntil,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("budgets: select failed: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &b.Items); err != nil {
			return nil, fmt.Errorf("budgets: decode items: %w", err)
		}
	}
	b.ValidUntil = validUntil
	return &b, nil
}
