package queue

import (
	"context"
	"testing"
	"time"

	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, maxDepth int) *Manager {
	t.Helper()
	return NewManager(Config{MaxDepth: maxDepth}, nil, zap.NewNop())
}

func TestAddToQueue_OrdersByPriorityThenFIFO(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	low := uuid.New()
	high := uuid.New()
	mid := uuid.New()

	if _, err := m.AddToQueue(ctx, low, 1); err != nil {
		t.Fatalf("AddToQueue(low): %v", err)
	}
	if _, err := m.AddToQueue(ctx, high, 10); err != nil {
		t.Fatalf("AddToQueue(high): %v", err)
	}
	if _, err := m.AddToQueue(ctx, mid, 5); err != nil {
		t.Fatalf("AddToQueue(mid): %v", err)
	}

	jobID, ok, err := m.GetNextJob(ctx, "worker-1")
	if err != nil || !ok {
		t.Fatalf("GetNextJob: ok=%v err=%v", ok, err)
	}
	if jobID != high {
		t.Errorf("expected highest-priority job first, got %s want %s", jobID, high)
	}
}

func TestAddToQueue_RejectsDuplicateAndRespectsMaxDepth(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 1)

	jobID := uuid.New()
	if _, err := m.AddToQueue(ctx, jobID, 0); err != nil {
		t.Fatalf("first AddToQueue: %v", err)
	}
	if _, err := m.AddToQueue(ctx, jobID, 0); err == nil {
		t.Error("expected duplicate AddToQueue to fail")
	}

	other := uuid.New()
	if _, err := m.AddToQueue(ctx, other, 0); err == nil {
		t.Error("expected AddToQueue beyond maxDepth to fail")
	}
}

func TestAddToQueue_RejectsWhenPaused(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)
	m.Pause(ctx)

	if _, err := m.AddToQueue(ctx, uuid.New(), 0); err == nil {
		t.Error("expected AddToQueue to fail while paused")
	}

	m.Resume(ctx)
	if _, err := m.AddToQueue(ctx, uuid.New(), 0); err != nil {
		t.Errorf("expected AddToQueue to succeed after resume, got %v", err)
	}
}

func TestGetNextJob_EmptyQueueReturnsFalse(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	jobID, ok, err := m.GetNextJob(ctx, "worker-1")
	if err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}
	if ok || jobID != uuid.Nil {
		t.Errorf("expected no job on empty queue, got ok=%v jobID=%s", ok, jobID)
	}
}

func TestCompleteJob_UpdatesStatsAndWorker(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)
	m.RegisterWorker(ctx, entity.NewWorker("worker-1", "w1", nil, 1))

	jobID := uuid.New()
	if _, err := m.AddToQueue(ctx, jobID, 0); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, "worker-1"); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}

	if err := m.CompleteJob(ctx, jobID, "worker-1"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	stats := m.Stats()
	if stats.Completed != 1 {
		t.Errorf("expected Completed=1, got %d", stats.Completed)
	}
	if stats.Active != 0 {
		t.Errorf("expected Active=0 after completion, got %d", stats.Active)
	}
}

func TestFailJob_RequeuesWhenRetryRequested(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	jobID := uuid.New()
	if _, err := m.AddToQueue(ctx, jobID, 3); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, ""); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}

	if err := m.FailJob(ctx, jobID, "", true); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	if pos := m.QueuePosition(jobID); pos != 1 {
		t.Errorf("expected failed job requeued at position 1, got %d", pos)
	}

	stats := m.Stats()
	if stats.Failed != 1 {
		t.Errorf("expected Failed=1, got %d", stats.Failed)
	}
}

func TestFailJob_DropsWhenNoRetry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	jobID := uuid.New()
	if _, err := m.AddToQueue(ctx, jobID, 0); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, ""); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}

	if err := m.FailJob(ctx, jobID, "", false); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	if pos := m.QueuePosition(jobID); pos != 0 {
		t.Errorf("expected no requeue without retry, got position %d", pos)
	}
}

func TestCleanupInactiveWorkers_RequeuesInFlightJobs(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	w := entity.NewWorker("stale-worker", "w", nil, 1)
	w.LastHeartbeat = time.Now().Add(-time.Hour)
	m.RegisterWorker(ctx, w)

	jobID := uuid.New()
	if _, err := m.AddToQueue(ctx, jobID, 0); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, "stale-worker"); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}

	removed, err := m.CleanupInactiveWorkers(ctx, time.Minute)
	if err != nil {
		t.Fatalf("CleanupInactiveWorkers: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 worker removed, got %d", removed)
	}

	status := m.Status()
	if status.WorkerCount != 0 {
		t.Errorf("expected worker deregistered, got count %d", status.WorkerCount)
	}
	if status.QueueLength != 1 {
		t.Errorf("expected job requeued, got queue length %d", status.QueueLength)
	}
}

func TestCleanupInactiveWorkers_PreservesOriginalPriority(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	w := entity.NewWorker("stale-worker", "w", nil, 2)
	w.LastHeartbeat = time.Now().Add(-time.Hour)
	m.RegisterWorker(ctx, w)

	highPriority := uuid.New()
	lowPriority := uuid.New()
	if _, err := m.AddToQueue(ctx, highPriority, 5); err != nil {
		t.Fatalf("AddToQueue(highPriority): %v", err)
	}
	if _, err := m.AddToQueue(ctx, lowPriority, 1); err != nil {
		t.Fatalf("AddToQueue(lowPriority): %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, "stale-worker"); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}
	if _, _, err := m.GetNextJob(ctx, "stale-worker"); err != nil {
		t.Fatalf("GetNextJob: %v", err)
	}

	if _, err := m.CleanupInactiveWorkers(ctx, time.Minute); err != nil {
		t.Fatalf("CleanupInactiveWorkers: %v", err)
	}

	jobID, ok, err := m.GetNextJob(ctx, "")
	if err != nil || !ok {
		t.Fatalf("GetNextJob after cleanup: ok=%v err=%v", ok, err)
	}
	if jobID != highPriority {
		t.Errorf("expected the higher-priority job (5) to be requeued ahead of the lower-priority one (1), got %s want %s", jobID, highPriority)
	}
}

func TestClear_EmptiesQueueAndActiveSet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	if _, err := m.AddToQueue(ctx, uuid.New(), 0); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if _, err := m.AddToQueue(ctx, uuid.New(), 0); err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}

	m.Clear(ctx)

	status := m.Status()
	if status.QueueLength != 0 {
		t.Errorf("expected empty queue after Clear, got %d", status.QueueLength)
	}
}

func TestUpdateWorkerHeartbeat_UnknownWorkerErrors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 0)

	if err := m.UpdateWorkerHeartbeat(ctx, "does-not-exist"); err == nil {
		t.Error("expected error for unknown worker")
	}
}
