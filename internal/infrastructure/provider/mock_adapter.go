package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockAdapter is a VideoProvider used in development and tests. It
// simulates staged progress over wall-clock time instead of calling out
// to a real generation API.
type mockAdapter struct {
	logger       *zap.Logger
	simulateTime bool
	failureRate  float64

	mu   sync.Mutex
	jobs map[string]*mockOperation
}

type mockOperation struct {
	startTime time.Time
	duration  int
	cancelled bool
}

// NewMockAdapter creates a mock provider adapter. When simulateTime is
// false, Submit completes instantly; otherwise Poll reports staged
// progress across a fixed 30s window.
func NewMockAdapter(logger *zap.Logger, simulateTime bool, failureRate float64) service.VideoProvider {
	return &mockAdapter{
		logger:       logger,
		simulateTime: simulateTime,
		failureRate:  failureRate,
		jobs:         make(map[string]*mockOperation),
	}
}

func (p *mockAdapter) Name() string { return "mock" }

func (p *mockAdapter) Validate(ctx context.Context, req service.GenerationRequest) (*service.ValidationResult, error) {
	if len(req.Prompt) < 3 {
		return &service.ValidationResult{Valid: false, Error: "prompt too short"}, nil
	}
	return &service.ValidationResult{Valid: true}, nil
}

func (p *mockAdapter) Submit(ctx context.Context, req service.GenerationRequest) (*service.SubmitResult, error) {
	opID := uuid.New().String()
	duration, _ := req.Parameters["duration"].(int)
	if duration == 0 {
		duration = 5
	}

	p.mu.Lock()
	p.jobs[opID] = &mockOperation{startTime: time.Now(), duration: duration}
	p.mu.Unlock()

	p.logger.Info("mock generation submitted", zap.String("operation_id", opID), zap.String("prompt", req.Prompt))

	status := service.OperationPending
	if !p.simulateTime {
		status = service.OperationCompleted
	}
	return &service.SubmitResult{OperationID: opID, Status: status}, nil
}

func (p *mockAdapter) Poll(ctx context.Context, operationID string) (*service.OperationStatus, error) {
	p.mu.Lock()
	op, ok := p.jobs[operationID]
	p.mu.Unlock()
	if !ok {
		return nil, apierr.ErrJobNotFound
	}
	if op.cancelled {
		return &service.OperationStatus{Status: service.OperationCancelled}, nil
	}

	if !p.simulateTime {
		return &service.OperationStatus{
			Status:   service.OperationCompleted,
			Progress: 100,
			Result: &service.VideoResult{
				URI:             fmt.Sprintf("https://mock-provider.internal/videos/%s.mp4", operationID),
				DurationSeconds: op.duration,
				FileSizeBytes:   int64(op.duration) * 250000,
			},
		}, nil
	}

	elapsed := time.Since(op.startTime)
	progress := int(elapsed.Seconds() / 30 * 100)
	if progress > 100 {
		progress = 100
	}

	if progress < 100 {
		return &service.OperationStatus{Status: service.OperationRunning, Progress: progress}, nil
	}

	return &service.OperationStatus{
		Status:   service.OperationCompleted,
		Progress: 100,
		Result: &service.VideoResult{
			URI:             fmt.Sprintf("https://mock-provider.internal/videos/%s.mp4", operationID),
			DurationSeconds: op.duration,
			FileSizeBytes:   int64(op.duration) * 250000,
		},
	}, nil
}

func (p *mockAdapter) FetchResult(ctx context.Context, operationID string) (*service.VideoResult, error) {
	status, err := p.Poll(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if status.Result == nil {
		return nil, apierr.ErrGenerationFailed
	}
	return status.Result, nil
}

func (p *mockAdapter) Cancel(ctx context.Context, operationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	op, ok := p.jobs[operationID]
	if !ok {
		return apierr.ErrJobNotFound
	}
	op.cancelled = true
	p.logger.Info("mock generation cancelled", zap.String("operation_id", operationID))
	return nil
}

func (p *mockAdapter) EstimateCost(ctx context.Context, req service.GenerationRequest) (*service.CostEstimate, error) {
	duration, _ := req.Parameters["duration"].(int)
	if duration == 0 {
		duration = 5
	}
	return &service.CostEstimate{Cost: 0, Currency: "USD"}, nil
}

func (p *mockAdapter) Health(ctx context.Context) (*service.ProviderHealth, error) {
	healthy := rand.Float64() >= p.failureRate
	return &service.ProviderHealth{
		Healthy:      healthy,
		ResponseTime: time.Duration(rand.Intn(100)+50) * time.Millisecond,
		ErrorRate:    p.failureRate,
		LastChecked:  time.Now(),
	}, nil
}
