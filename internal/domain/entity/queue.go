package entity

import (
	"time"

	"github.com/google/uuid"
)

// QueueEntryStatus distinguishes ready-to-lease jobs from leased ones.
type QueueEntryStatus string

const (
	QueueEntryPending QueueEntryStatus = "pending"
	QueueEntryActive  QueueEntryStatus = "active"
)

// QueueEntry is a job's presence in the priority queue. It exists only
// while the job has not reached a terminal status.
type QueueEntry struct {
	JobID      uuid.UUID        `json:"jobId"`
	Priority   int              `json:"priority"`
	EnqueuedAt time.Time        `json:"enqueuedAt"`
	Status     QueueEntryStatus `json:"status"`
}

// Worker is a registered process instance capable of leasing jobs.
type Worker struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Capabilities   []string        `json:"capabilities"`
	IsActive       bool            `json:"isActive"`
	LastHeartbeat  time.Time       `json:"lastHeartbeat"`
	MaxConcurrency int             `json:"maxConcurrency"`
	ProcessedCount int64           `json:"processedCount"`
	FailedCount    int64           `json:"failedCount"`
	CurrentJobs    map[uuid.UUID]struct{} `json:"currentJobs"`
}

// NewWorker registers a worker record with an empty in-flight set.
func NewWorker(id, name string, capabilities []string, maxConcurrency int) *Worker {
	return &Worker{
		ID:             id,
		Name:           name,
		Capabilities:   capabilities,
		IsActive:       true,
		LastHeartbeat:  time.Now(),
		MaxConcurrency: maxConcurrency,
		CurrentJobs:    make(map[uuid.UUID]struct{}),
	}
}
