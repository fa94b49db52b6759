// Package jobstore implements the Job Store: durable per-job state with
// guarded transitions, progress updates, history, retry, cancel, and
// retention cleanup.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store is the Postgres-backed Job Store.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore wraps an existing connection pool.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Create persists a new job and its initial history entry.
func (s *Store) Create(ctx context.Context, job *entity.Job) error {
	paramsJSON, err := json.Marshal(job.Parameters)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to marshal job parameters", err)
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO jobs (id, user_id, prompt, model_id, provider_id, parameters, priority,
			                  status, progress, retry_count, max_retries, cost_estimate,
			                  created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, job.ID, job.UserID, job.Prompt, job.ModelID, job.ProviderID, paramsJSON, job.Priority,
			job.Status, job.Progress, job.RetryCount, job.MaxRetries, job.CostEstimate,
			job.CreatedAt, job.UpdatedAt)
		if err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to insert job", err)
		}

		return appendHistory(ctx, tx, job.ID, entity.JobHistoryCreated, nil, "")
	})
}

// GetByID loads a job by id. It does not check ownership; callers
// compare job.UserID themselves.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var job entity.Job
	var paramsJSON []byte
	var operationID *string
	var resultJSON, errorJSON []byte

	var clarificationsJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, prompt, model_id, provider_id, parameters, priority, status, progress,
		       retry_count, max_retries, operation_id, cost_estimate, result, error, clarifications,
		       created_at, updated_at, started_at, completed_at, failed_at
		FROM jobs WHERE id = $1
	`, id).Scan(
		&job.ID, &job.UserID, &job.Prompt, &job.ModelID, &job.ProviderID, &paramsJSON, &job.Priority,
		&job.Status, &job.Progress, &job.RetryCount, &job.MaxRetries, &operationID, &job.CostEstimate,
		&resultJSON, &errorJSON, &clarificationsJSON,
		&job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.CompletedAt, &job.FailedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.ErrJobNotFound
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to load job", err)
	}

	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &job.Parameters); err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "corrupt job parameters", err)
		}
	}
	job.OperationID = operationID
	if len(resultJSON) > 0 {
		var result entity.JobResult
		if err := json.Unmarshal(resultJSON, &result); err == nil {
			job.Result = &result
		}
	}
	if len(errorJSON) > 0 {
		var jobErr entity.JobError
		if err := json.Unmarshal(errorJSON, &jobErr); err == nil {
			job.Error = &jobErr
		}
	}
	if len(clarificationsJSON) > 0 {
		_ = json.Unmarshal(clarificationsJSON, &job.Clarifications)
	}

	return &job, nil
}

// MergeClarifications merges responses into the job's stored
// clarification map: a newer response replaces the stored value for
// the same field, and stored fields absent from responses are kept.
func (s *Store) MergeClarifications(ctx context.Context, id uuid.UUID, responses map[string]string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var existingJSON []byte
		if err := tx.QueryRow(ctx, `SELECT clarifications FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&existingJSON); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for clarification merge", err)
		}

		merged := map[string]string{}
		if len(existingJSON) > 0 {
			_ = json.Unmarshal(existingJSON, &merged)
		}
		for k, v := range responses {
			merged[k] = v
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to marshal clarifications", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE jobs SET clarifications = $2, updated_at = now() WHERE id = $1`, id, data); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to persist clarifications", err)
		}
		return nil
	})
}

// Transition moves a job from its current status to to, validating
// against the transition table and stamping phase timestamps.
func (s *Store) Transition(ctx context.Context, id uuid.UUID, to entity.JobStatus, action entity.JobHistoryAction, historyMsg string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var current entity.JobStatus
		var startedAt *time.Time
		if err := tx.QueryRow(ctx, `SELECT status, started_at FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&current, &startedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for transition", err)
		}

		if !isValidTransition(current, to) {
			return apierr.ErrInvalidTransition
		}

		now := time.Now()
		setStarted := to == entity.JobStatusActive && startedAt == nil

		_, err := tx.Exec(ctx, `
			UPDATE jobs SET status = $2, updated_at = $3,
			                started_at = CASE WHEN $4 THEN $3 ELSE started_at END
			WHERE id = $1
		`, id, to, now, setStarted)
		if err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to update job status", err)
		}

		return appendHistory(ctx, tx, id, action, nil, historyMsg)
	})
}

// UpdateProgress records a progress update while the job is active.
// Progress updates never change status.
func (s *Store) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	if progress < 0 || progress > 100 {
		return apierr.New(apierr.CodeValidation, "progress must be between 0 and 100")
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var status entity.JobStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for progress update", err)
		}
		if status != entity.JobStatusActive {
			return apierr.New(apierr.CodeConflict, "progress can only be updated while active")
		}

		if _, err := tx.Exec(ctx, `UPDATE jobs SET progress = $2, updated_at = now() WHERE id = $1`, id, progress); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to update progress", err)
		}

		data := map[string]any{"progress": progress}
		return appendHistory(ctx, tx, id, entity.JobHistoryProgress, data, "")
	})
}

// SetOperationID stamps the provider-side operation handle on dispatch.
func (s *Store) SetOperationID(ctx context.Context, id uuid.UUID, operationID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE jobs SET operation_id = $2, updated_at = now() WHERE id = $1`, id, operationID)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to set operation id", err)
	}
	return nil
}

// Complete forces progress to 100 and status to completed.
func (s *Store) Complete(ctx context.Context, id uuid.UUID, result entity.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to marshal job result", err)
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var current entity.JobStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for completion", err)
		}
		if !isValidTransition(current, entity.JobStatusCompleted) {
			return apierr.ErrInvalidTransition
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = $2, progress = 100, result = $3, completed_at = $4, updated_at = $4
			WHERE id = $1
		`, id, entity.JobStatusCompleted, resultJSON, now); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to complete job", err)
		}

		return appendHistory(ctx, tx, id, entity.JobHistoryCompleted, nil, "")
	})
}

// Fail sets the error and transitions the job to failed.
func (s *Store) Fail(ctx context.Context, id uuid.UUID, jobErr entity.JobError) error {
	errorJSON, err := json.Marshal(jobErr)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to marshal job error", err)
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var current entity.JobStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for failure", err)
		}
		if !isValidTransition(current, entity.JobStatusFailed) {
			return apierr.ErrInvalidTransition
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = $2, error = $3, failed_at = $4, updated_at = $4
			WHERE id = $1
		`, id, entity.JobStatusFailed, errorJSON, now); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to fail job", err)
		}

		return appendHistory(ctx, tx, id, entity.JobHistoryFailed, nil, jobErr.Message)
	})
}

// Cancel transitions the job to cancelled with a fixed error message.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var current entity.JobStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for cancel", err)
		}
		if !isValidTransition(current, entity.JobStatusCancelled) {
			return apierr.ErrJobNotCancellable
		}

		errorJSON, _ := json.Marshal(entity.JobError{Message: "Generation was cancelled"})
		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = $2, error = $3, completed_at = $4, updated_at = $4
			WHERE id = $1
		`, id, entity.JobStatusCancelled, errorJSON, now); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to cancel job", err)
		}

		return appendHistory(ctx, tx, id, entity.JobHistoryCancelled, nil, "")
	})
}

// Retry requires failed status and retryCount < maxRetries. It clears
// the error, resets progress, increments retryCount, and transitions to
// pending_clarification, or straight to queued when clarifications are
// disabled.
func (s *Store) Retry(ctx context.Context, id uuid.UUID, clarificationsEnabled bool) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var current entity.JobStatus
		var retryCount, maxRetries int
		if err := tx.QueryRow(ctx, `SELECT status, retry_count, max_retries FROM jobs WHERE id = $1 FOR UPDATE`, id).
			Scan(&current, &retryCount, &maxRetries); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apierr.ErrJobNotFound
			}
			return apierr.Wrap(apierr.CodeInternal, "failed to load job for retry", err)
		}
		if current != entity.JobStatusFailed {
			return apierr.ErrInvalidTransition
		}
		if retryCount >= maxRetries {
			return apierr.New(apierr.CodeConflict, "retry count exhausted")
		}

		next := entity.JobStatusPendingClarification
		if !clarificationsEnabled {
			next = entity.JobStatusQueued
		}
		if !isValidTransition(entity.JobStatusRetrying, next) {
			return apierr.ErrInvalidTransition
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = $2, retry_count = retry_count + 1, progress = 0,
			                error = NULL, failed_at = NULL, updated_at = $3
			WHERE id = $1
		`, id, next, now); err != nil {
			return apierr.Wrap(apierr.CodeInternal, "failed to retry job", err)
		}

		return appendHistory(ctx, tx, id, entity.JobHistoryRetried, map[string]any{"retryCount": retryCount + 1}, "")
	})
}

// Cleanup removes jobs (and their history, via FK cascade) in a
// terminal status whose last relevant timestamp predates retention.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM jobs
		WHERE status IN ($1,$2,$3)
		  AND COALESCE(completed_at, failed_at, updated_at) < $4
	`, entity.JobStatusCompleted, entity.JobStatusFailed, entity.JobStatusCancelled, cutoff)
	if err != nil {
		return 0, apierr.Wrap(apierr.CodeInternal, "failed to clean up jobs", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to commit transaction", err)
	}
	return nil
}

func appendHistory(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, action entity.JobHistoryAction, data map[string]any, message string) error {
	var dataJSON []byte
	if data != nil {
		var err error
		dataJSON, err = json.Marshal(data)
		if err != nil {
			return err
		}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO job_history (id, job_id, action, timestamp, data, message)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.New(), jobID, action, time.Now(), dataJSON, message)
	return err
}

// History returns the append-only transition/progress log for a job,
// oldest first.
func (s *Store) History(ctx context.Context, jobID uuid.UUID) ([]entity.JobHistory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, action, timestamp, data, message
		FROM job_history WHERE job_id = $1 ORDER BY timestamp ASC
	`, jobID)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to load job history", err)
	}
	defer rows.Close()

	var out []entity.JobHistory
	for rows.Next() {
		var h entity.JobHistory
		var dataJSON []byte
		if err := rows.Scan(&h.ID, &h.JobID, &h.Action, &h.Timestamp, &dataJSON, &h.Message); err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "failed to scan job history row", err)
		}
		if len(dataJSON) > 0 {
			_ = json.Unmarshal(dataJSON, &h.Data)
		}
		out = append(out, h)
	}
	return out, nil
}
