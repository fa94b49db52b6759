package queue

import (
	"context"
	"encoding/json"

	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/arabella/vidforge/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const snapshotKey = "vidforge:queue:state"

// snapshot is the durable shape of the queue manager's in-memory state.
type snapshot struct {
	Ready   []*entity.QueueEntry    `json:"ready"`
	Active  []*entity.QueueEntry    `json:"active"`
	Workers []*entity.Worker        `json:"workers"`
	Paused  bool                    `json:"paused"`
}

// persistLocked writes the current state to Redis. Callers must hold
// m.mu. Persistence failures are logged, not returned: an in-memory
// mutation that cannot be snapshotted should not be rolled back, since
// the next successful persist will catch up.
func (m *Manager) persistLocked(ctx context.Context) {
	metrics.QueueWaiting.Set(float64(len(m.ready)))
	metrics.QueueActive.Set(float64(len(m.active)))
	metrics.WorkerCount.Set(float64(len(m.workers)))

	if m.redis == nil {
		return
	}

	snap := snapshot{Paused: m.paused}
	for _, item := range m.ready {
		snap.Ready = append(snap.Ready, item.entry)
	}
	for _, entry := range m.active {
		snap.Active = append(snap.Active, entry)
	}
	for _, w := range m.workers {
		snap.Workers = append(snap.Workers, w)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		m.logger.Warn("failed to marshal queue snapshot", zap.Error(err))
		return
	}
	if err := m.redis.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		m.logger.Warn("failed to persist queue snapshot", zap.Error(err))
	}
}

// LoadSnapshot restores state from the last persisted snapshot, if any.
// Call once at boot before serving traffic.
func (m *Manager) LoadSnapshot(ctx context.Context) error {
	if m.redis == nil {
		return nil
	}

	data, err := m.redis.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil // no prior snapshot; start empty
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn("failed to unmarshal queue snapshot; starting empty", zap.Error(err))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.paused = snap.Paused
	m.byJob = make(map[uuid.UUID]*heapItem)
	m.active = make(map[uuid.UUID]*entity.QueueEntry)
	m.workers = make(map[string]*entity.Worker)

	for _, entry := range snap.Ready {
		item := &heapItem{entry: entry}
		m.ready = append(m.ready, item)
		m.byJob[entry.JobID] = item
	}
	initHeap(&m.ready)
	for _, entry := range snap.Active {
		m.active[entry.JobID] = entry
	}
	for _, w := range snap.Workers {
		if w.CurrentJobs == nil {
			w.CurrentJobs = make(map[uuid.UUID]struct{})
		}
		m.workers[w.ID] = w
	}

	m.logger.Info("restored queue snapshot",
		zap.Int("ready", len(m.ready)),
		zap.Int("active", len(m.active)),
		zap.Int("workers", len(m.workers)),
	)
	return nil
}
