// Package queue implements the Queue Manager: a single global priority
// queue of ready jobs, an active set, and a worker registry, persisted
// to Redis so a restart recovers both.
package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/arabella/vidforge/internal/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stats mirrors the queue/stats HTTP payload.
type Stats struct {
	Waiting         int
	Active          int
	Completed       int64
	Failed          int64
	Delayed         int
	TotalProcessed  int64
	AvgProcessingMS int64
}

// Status mirrors the queue/status HTTP payload.
type Status struct {
	IsPaused    bool
	QueueLength int
	ActiveJobs  int
	WorkerCount int
}

// Manager is the single-writer, in-process priority queue plus worker
// registry. All mutating operations take the same mutex: within-job
// ordering and queue linearizability both follow from serializing every
// call through it, matching the single-writer-actor requirement.
type Manager struct {
	mu sync.Mutex

	ready  priorityHeap
	byJob  map[uuid.UUID]*heapItem
	active map[uuid.UUID]*entity.QueueEntry
	workers map[string]*entity.Worker

	paused    bool
	maxDepth  int
	completed int64
	failed    int64
	totalDur  time.Duration

	redis  *redis.Client
	logger *zap.Logger
}

// Config configures a new Manager.
type Config struct {
	MaxDepth int
}

// NewManager constructs an empty queue manager. snapshot, if a prior
// one exists in Redis, should be loaded with LoadSnapshot after.
func NewManager(cfg Config, redisClient *redis.Client, logger *zap.Logger) *Manager {
	return &Manager{
		byJob:   make(map[uuid.UUID]*heapItem),
		active:  make(map[uuid.UUID]*entity.QueueEntry),
		workers: make(map[string]*entity.Worker),
		maxDepth: cfg.MaxDepth,
		redis:    redisClient,
		logger:   logger,
	}
}

// AddToQueue admits a job to the ready heap, returning its 1-based
// position among ready entries ordered by lease priority.
func (m *Manager) AddToQueue(ctx context.Context, jobID uuid.UUID, priority int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused {
		return 0, apierr.New(apierr.CodeServiceUnavailable, "queue is paused")
	}
	if _, exists := m.byJob[jobID]; exists {
		return 0, apierr.New(apierr.CodeConflict, "job already queued")
	}
	if _, exists := m.active[jobID]; exists {
		return 0, apierr.New(apierr.CodeConflict, "job already active")
	}
	if m.maxDepth > 0 && len(m.ready) >= m.maxDepth {
		return 0, apierr.ErrQueueFull
	}

	item := &heapItem{entry: newQueueEntry(jobID, priority)}
	heap.Push(&m.ready, item)
	m.byJob[jobID] = item

	m.persistLocked(ctx)
	return m.positionLocked(jobID), nil
}

// positionLocked returns the 1-based rank of jobID among ready entries.
// Callers must hold m.mu.
func (m *Manager) positionLocked(jobID uuid.UUID) int {
	ordered := append(priorityHeap(nil), m.ready...)
	sortByLeaseOrder(ordered)
	for i, it := range ordered {
		if it.entry.JobID == jobID {
			return i + 1
		}
	}
	return 0
}

func sortByLeaseOrder(items priorityHeap) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items.Less(j, j-1); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// GetNextJob leases the highest-priority ready entry, moving it to the
// active set. Returns (uuid.Nil, false, nil) when empty or paused.
func (m *Manager) GetNextJob(ctx context.Context, workerID string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || len(m.ready) == 0 {
		return uuid.Nil, false, nil
	}

	item := heap.Pop(&m.ready).(*heapItem)
	delete(m.byJob, item.entry.JobID)

	item.entry.Status = entity.QueueEntryActive
	m.active[item.entry.JobID] = item.entry

	if workerID != "" {
		if w, ok := m.workers[workerID]; ok {
			w.CurrentJobs[item.entry.JobID] = struct{}{}
			w.LastHeartbeat = time.Now()
		}
	}

	m.persistLocked(ctx)
	return item.entry.JobID, true, nil
}

// CompleteJob removes jobID from the active set and clears it from the
// owning worker's in-flight set.
func (m *Manager) CompleteJob(ctx context.Context, jobID uuid.UUID, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.active, jobID)
	if workerID != "" {
		if w, ok := m.workers[workerID]; ok {
			delete(w.CurrentJobs, jobID)
			w.ProcessedCount++
		}
	}
	m.completed++
	metrics.JobsProcessedTotal.Inc()

	m.persistLocked(ctx)
	return nil
}

// FailJob removes jobID from the active set. When shouldRetry it is
// re-enqueued at its original priority; otherwise it is dropped — the
// Job Store already recorded the failure.
func (m *Manager) FailJob(ctx context.Context, jobID uuid.UUID, workerID string, shouldRetry bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.active[jobID]
	if !ok {
		entry = &entity.QueueEntry{JobID: jobID, Priority: 0}
	}
	delete(m.active, jobID)

	if workerID != "" {
		if w, ok := m.workers[workerID]; ok {
			delete(w.CurrentJobs, jobID)
			w.FailedCount++
		}
	}
	m.failed++
	metrics.JobsFailedTotal.Inc()

	if shouldRetry {
		item := &heapItem{entry: newQueueEntry(jobID, entry.Priority)}
		heap.Push(&m.ready, item)
		m.byJob[jobID] = item
	}

	m.persistLocked(ctx)
	return nil
}

// Pause prevents both AddToQueue and GetNextJob from admitting/leasing.
func (m *Manager) Pause(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	m.persistLocked(ctx)
}

// Resume reverses Pause.
func (m *Manager) Resume(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	m.persistLocked(ctx)
}

// Clear empties both the ready heap and active set. It does not cancel
// any external provider operation — callers must do that first.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = priorityHeap{}
	m.byJob = make(map[uuid.UUID]*heapItem)
	m.active = make(map[uuid.UUID]*entity.QueueEntry)
	m.persistLocked(ctx)
}

// RegisterWorker installs a worker record, overwriting any existing one.
func (m *Manager) RegisterWorker(ctx context.Context, w *entity.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
	m.persistLocked(ctx)
}

// UpdateWorkerHeartbeat refreshes lastHeartbeat for a registered worker.
func (m *Manager) UpdateWorkerHeartbeat(ctx context.Context, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workers[workerID]
	if !ok {
		return apierr.ErrWorkerNotFound
	}
	w.LastHeartbeat = time.Now()
	m.persistLocked(ctx)
	return nil
}

// CleanupInactiveWorkers re-queues the currentJobs of any worker whose
// lastHeartbeat predates now-threshold, then removes the worker. This is
// the recovery path for crashed workers.
func (m *Manager) CleanupInactiveWorkers(ctx context.Context, threshold time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-threshold)
	removed := 0

	for id, w := range m.workers {
		if w.LastHeartbeat.After(cutoff) {
			continue
		}
		for jobID := range w.CurrentJobs {
			priority := 0
			if entry, ok := m.active[jobID]; ok {
				priority = entry.Priority
			}
			delete(m.active, jobID)
			item := &heapItem{entry: newQueueEntry(jobID, priority)}
			heap.Push(&m.ready, item)
			m.byJob[jobID] = item
		}
		delete(m.workers, id)
		removed++
	}

	if removed > 0 {
		m.persistLocked(ctx)
	}
	return removed, nil
}

// Stats reports current queue counters for the stats endpoint.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg int64
	total := m.completed + m.failed
	if total > 0 {
		avg = m.totalDur.Milliseconds() / total
	}

	return Stats{
		Waiting:        len(m.ready),
		Active:         len(m.active),
		Completed:      m.completed,
		Failed:         m.failed,
		TotalProcessed: total,
		AvgProcessingMS: avg,
	}
}

// Status reports current queue shape for the status endpoint.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		IsPaused:    m.paused,
		QueueLength: len(m.ready),
		ActiveJobs:  len(m.active),
		WorkerCount: len(m.workers),
	}
}

// QueuePosition reports jobID's 1-based rank among ready entries, or 0
// if it is not currently waiting.
func (m *Manager) QueuePosition(jobID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byJob[jobID]; !ok {
		return 0
	}
	return m.positionLocked(jobID)
}
