package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Job statuses.
const (
	StatusPending = "pending"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Claims older than this are treated as abandoned by a crashed sender and
// become eligible again.
const staleClaimAge = "15 minutes"

// Job is one queued outbound broadcast message.
type Job struct {
	ID            uuid.UUID
	Number        string
	Body          string
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt *time.Time
	CreatedAt     time.Time
}

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists broadcast jobs in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("broadcast: pgx pool required")
	}
	return &Store{pool: pool}
}

// Enqueue inserts one pending job per recipient with a pre-rendered body.
func (s *Store) Enqueue(ctx context.Context, number, body string) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO broadcast_jobs (id, number, body, status)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, query, id, number, body, StatusPending); err != nil {
		return uuid.Nil, fmt.Errorf("broadcast: enqueue job: %w", err)
	}
	return id, nil
}

// ListDue claims due pending jobs and returns them. The claim moves each job
// to the sending status inside a single statement, so concurrent senders
// sharing the table never pick up the same job. Claims abandoned by a crashed
// sender age out and become due again.
func (s *Store) ListDue(ctx context.Context, limit, maxAttempts int) ([]Job, error) {
	query := `
		UPDATE broadcast_jobs
		SET status = $4, updated_at = now()
		WHERE id IN (
			SELECT id
			FROM broadcast_jobs
			WHERE (status = $1 OR (status = $4 AND updated_at < now() - $5::interval))
				AND attempts < $2
				AND (next_attempt_at IS NULL OR next_attempt_at <= now())
			ORDER BY next_attempt_at NULLS FIRST, created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, number, body, status, attempts, COALESCE(last_error, ''), next_attempt_at, created_at
	`
	rows, err := s.pool.Query(ctx, query, StatusPending, maxAttempts, limit, StatusSending, staleClaimAge)
	if err != nil {
		return nil, fmt.Errorf("broadcast: list due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Number, &job.Body, &job.Status, &job.Attempts, &job.LastError, &job.NextAttemptAt, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("broadcast: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkSent finalizes a delivered job.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE broadcast_jobs
		SET status = $2, sent_at = now(), updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id, StatusSent); err != nil {
		return fmt.Errorf("broadcast: mark sent: %w", err)
	}
	return nil
}

// ScheduleRetry bumps the attempt counter, releases the claim and sets the
// next attempt time.
func (s *Store) ScheduleRetry(ctx context.Context, id uuid.UUID, lastError string, nextAttempt time.Time) error {
	query := `
		UPDATE broadcast_jobs
		SET status = $4,
			attempts = attempts + 1,
			last_error = $2,
			next_attempt_at = $3,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id, lastError, nextAttempt, StatusPending); err != nil {
		return fmt.Errorf("broadcast: schedule retry: %w", err)
	}
	return nil
}

// MarkFailed gives up on a job after max attempts.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	query := `
		UPDATE broadcast_jobs
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, id, StatusFailed, lastError); err != nil {
		return fmt.Errorf("broadcast: mark failed: %w", err)
	}
	return nil
}
