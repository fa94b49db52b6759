package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a generation job. Transitions are
// enforced by the job store against its allowedTransitions table
// (jobstore/transitions.go).
type JobStatus string

const (
	JobStatusPendingClarification JobStatus = "pending_clarification"
	JobStatusPendingConfirmation  JobStatus = "pending_confirmation"
	JobStatusQueued               JobStatus = "queued"
	JobStatusActive               JobStatus = "active"
	JobStatusCompleted            JobStatus = "completed"
	JobStatusFailed               JobStatus = "failed"
	JobStatusCancelled            JobStatus = "cancelled"
	JobStatusRetrying             JobStatus = "retrying"
)

// IsTerminal reports whether no further transition out of status is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// DefaultMaxRetries is the retry bound applied to newly created jobs.
const DefaultMaxRetries = 3

// JobResult is the video produced by a completed generation.
type JobResult struct {
	VideoURL        string `json:"videoUrl"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	Resolution      string `json:"resolution,omitempty"`
	FileSizeBytes   int64  `json:"fileSizeBytes"`
	Format          string `json:"format,omitempty"`
}

// JobError carries the failure reason for a failed or cancelled job.
type JobError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Job is the unit of work tracked end to end through generation.
type Job struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"userId"`
	Prompt     string            `json:"prompt"`
	ModelID    string            `json:"modelId"`
	ProviderID string            `json:"providerId"`
	Parameters map[string]any    `json:"parameters"`
	Priority   int               `json:"priority"`
	Status     JobStatus         `json:"status"`
	Progress   int               `json:"progress"`
	RetryCount int               `json:"retryCount"`
	MaxRetries int               `json:"maxRetries"`
	OperationID *string          `json:"operationId,omitempty"`
	CostEstimate float64         `json:"costEstimate"`
	Result     *JobResult        `json:"result,omitempty"`
	Error      *JobError         `json:"error,omitempty"`
	Clarifications map[string]string `json:"clarifications,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
}

// NewJob creates a job in its initial pending_clarification status.
func NewJob(userID uuid.UUID, prompt, modelID, providerID string, parameters map[string]any, priority int) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.New(),
		UserID:     userID,
		Prompt:     prompt,
		ModelID:    modelID,
		ProviderID: providerID,
		Parameters: parameters,
		Priority:   priority,
		Status:     JobStatusPendingClarification,
		Progress:   0,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanBeCancelled reports whether the job's current status permits cancel.
func (j *Job) CanBeCancelled() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled:
		return false
	default:
		return true
	}
}

// JobHistoryAction tags what a history entry recorded.
type JobHistoryAction string

const (
	JobHistoryCreated   JobHistoryAction = "created"
	JobHistoryStarted   JobHistoryAction = "started"
	JobHistoryProgress  JobHistoryAction = "progress"
	JobHistoryCompleted JobHistoryAction = "completed"
	JobHistoryFailed    JobHistoryAction = "failed"
	JobHistoryCancelled JobHistoryAction = "cancelled"
	JobHistoryRetried   JobHistoryAction = "retried"
)

// JobHistory is an append-only transition/progress log entry for a job.
type JobHistory struct {
	ID        uuid.UUID        `json:"id"`
	JobID     uuid.UUID        `json:"jobId"`
	Action    JobHistoryAction `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Data      map[string]any   `json:"data,omitempty"`
	Message   string           `json:"message,omitempty"`
}
