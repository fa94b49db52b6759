// Package worker implements the Worker Runtime: a heartbeat loop and a
// bounded-concurrency processing loop that leases jobs from the queue
// manager and dispatches them through the orchestration workflow.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	"github.com/arabella/vidforge/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config controls a Runtime's pacing.
type Config struct {
	ID                string
	Name              string
	MaxConcurrency    int
	HeartbeatInterval time.Duration
	HeartbeatBackoff  time.Duration
	PollInterval      time.Duration
}

// Runtime registers itself with the queue manager on Start and runs
// cooperative heartbeat and processing loops until Stop is called.
type Runtime struct {
	cfg      Config
	queue    *queue.Manager
	workflow *workflow.Workflow
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	stop chan struct{}
	done chan struct{}
}

// New constructs a Runtime. Call Start to begin its loops.
func New(cfg Config, q *queue.Manager, wf *workflow.Workflow, logger *zap.Logger) *Runtime {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.HeartbeatBackoff <= 0 {
		cfg.HeartbeatBackoff = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	return &Runtime{
		cfg:      cfg,
		queue:    q,
		workflow: wf,
		logger:   logger,
		inFlight: make(map[uuid.UUID]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start registers the worker and begins both loops in the background.
func (r *Runtime) Start(ctx context.Context) {
	r.queue.RegisterWorker(ctx, entity.NewWorker(r.cfg.ID, r.cfg.Name, nil, r.cfg.MaxConcurrency))

	go r.heartbeatLoop(ctx)
	go r.processingLoop(ctx)
}

// Stop signals both loops to exit, hands every in-flight job back to
// the queue through FailJob with retry (it goes straight back into the
// ready queue; no error reason is recorded on the job), and waits for
// the processing loop to return.
func (r *Runtime) Stop(ctx context.Context) {
	close(r.stop)

	r.mu.Lock()
	inFlight := make([]uuid.UUID, 0, len(r.inFlight))
	for id := range r.inFlight {
		inFlight = append(inFlight, id)
	}
	r.mu.Unlock()

	for _, jobID := range inFlight {
		if err := r.queue.FailJob(ctx, jobID, r.cfg.ID, true); err != nil {
			r.logger.Warn("failed to requeue in-flight job on shutdown", zap.Error(err), zap.Stringer("job_id", jobID))
		}
	}

	<-r.done
}

func (r *Runtime) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.queue.UpdateWorkerHeartbeat(ctx, r.cfg.ID); err != nil {
				r.logger.Warn("heartbeat failed, retrying after backoff", zap.Error(err))
				select {
				case <-time.After(r.cfg.HeartbeatBackoff):
				case <-r.stop:
					return
				case <-ctx.Done():
					return
				}
				_ = r.queue.UpdateWorkerHeartbeat(ctx, r.cfg.ID)
			}
		}
	}
}

func (r *Runtime) processingLoop(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if r.inFlightCount() >= r.cfg.MaxConcurrency {
			time.Sleep(r.cfg.PollInterval)
			continue
		}

		jobID, ok, err := r.queue.GetNextJob(ctx, r.cfg.ID)
		if err != nil {
			r.logger.Error("failed to lease next job", zap.Error(err))
			time.Sleep(r.cfg.PollInterval)
			continue
		}
		if !ok {
			time.Sleep(r.cfg.PollInterval)
			continue
		}

		r.track(jobID)
		go r.dispatch(ctx, jobID)
	}
}

// dispatch repeatedly polls a leased job through the workflow until the
// workflow reports it done or the runtime is asked to stop.
func (r *Runtime) dispatch(ctx context.Context, jobID uuid.UUID) {
	defer r.untrack(jobID)

	for {
		done, err := r.workflow.ProcessGeneration(ctx, jobID, r.cfg.ID)
		if err != nil {
			r.logger.Warn("job processing step failed", zap.Error(err), zap.Stringer("job_id", jobID))
		}
		if done {
			return
		}

		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *Runtime) track(jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight[jobID] = struct{}{}
}

func (r *Runtime) untrack(jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, jobID)
}

func (r *Runtime) inFlightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}
