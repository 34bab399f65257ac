package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rbertolino-dev/flow-sub011/internal/messaging/evolutionclient"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

type jobStore interface {
	ListDue(ctx context.Context, limit, maxAttempts int) ([]Job, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, lastError string, nextAttempt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type textSender interface {
	SendText(ctx context.Context, req evolutionclient.SendTextRequest) (*evolutionclient.SendTextResponse, error)
}

// MetricsRecorder counts job outcomes for the /metrics endpoint.
type MetricsRecorder interface {
	ObserveBroadcastJob(outcome string)
}

// Sender drains pending broadcast jobs and retries failures with
// exponential backoff until max attempts.
type Sender struct {
	store       jobStore
	gateway     textSender
	logger      *logging.Logger
	metrics     MetricsRecorder
	maxAttempts int
	baseDelay   time.Duration
	interval    time.Duration
	batchSize   int
}

func NewSender(store jobStore, gateway textSender, logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sender{
		store:       store,
		gateway:     gateway,
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   5 * time.Minute,
		interval:    1 * time.Minute,
		batchSize:   25,
	}
}

func (s *Sender) WithMaxAttempts(n int) *Sender {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

func (s *Sender) WithBaseDelay(d time.Duration) *Sender {
	if d > 0 {
		s.baseDelay = d
	}
	return s
}

func (s *Sender) WithInterval(d time.Duration) *Sender {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sender) WithBatchSize(n int) *Sender {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

func (s *Sender) WithMetrics(m MetricsRecorder) *Sender {
	s.metrics = m
	return s
}

func (s *Sender) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

func (s *Sender) drain(ctx context.Context) {
	if s.store == nil || s.gateway == nil {
		return
	}
	jobs, err := s.store.ListDue(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		s.logger.Error("broadcast fetch failed", "error", err)
		return
	}
	for _, job := range jobs {
		_, err := s.gateway.SendText(ctx, evolutionclient.SendTextRequest{
			Number: job.Number,
			Text:   job.Body,
		})
		if err != nil {
			if job.Attempts+1 >= s.maxAttempts {
				if err := s.store.MarkFailed(ctx, job.ID, err.Error()); err != nil {
					s.logger.Error("mark failed failed", "error", err, "job_id", job.ID)
				}
				if s.metrics != nil {
					s.metrics.ObserveBroadcastJob("failed")
				}
				s.logger.Warn("broadcast job exhausted", "job_id", job.ID, "number", job.Number)
				continue
			}
			next := s.nextDelay(job.Attempts)
			if err := s.store.ScheduleRetry(ctx, job.ID, err.Error(), time.Now().Add(next)); err != nil {
				s.logger.Error("schedule retry failed", "error", err, "job_id", job.ID)
			}
			if s.metrics != nil {
				s.metrics.ObserveBroadcastJob("retried")
			}
			continue
		}
		if err := s.store.MarkSent(ctx, job.ID); err != nil {
			s.logger.Error("mark sent failed", "error", err, "job_id", job.ID)
		}
		if s.metrics != nil {
			s.metrics.ObserveBroadcastJob("sent")
		}
	}
}

func (s *Sender) nextDelay(attempts int) time.Duration {
	delay := s.baseDelay * time.Duration(1<<attempts)
	if delay > 24*time.Hour {
		delay = 24 * time.Hour
	}
	return delay
}
