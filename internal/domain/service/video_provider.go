// Package service declares the interfaces infrastructure adapters
// implement and workflow code depends on.
package service

import (
	"context"
	"time"
)

// GenerationRequest is the canonical, provider-agnostic request shape.
// Adapters translate Parameters into their own wire vocabulary.
type GenerationRequest struct {
	JobID      string
	Prompt     string
	ModelID    string
	Parameters map[string]any
}

// ValidationResult is returned by Validate.
type ValidationResult struct {
	Valid       bool
	Error       string
	Suggestions []string
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	OperationID string
	Status      OperationStatusCode
}

// OperationStatusCode normalizes every provider's status vocabulary.
type OperationStatusCode string

const (
	OperationPending   OperationStatusCode = "pending"
	OperationRunning   OperationStatusCode = "processing"
	OperationCompleted OperationStatusCode = "completed"
	OperationFailed    OperationStatusCode = "failed"
	OperationCancelled OperationStatusCode = "cancelled"
)

// OperationStatus is the normalized shape every adapter decodes its
// provider-specific poll response into.
type OperationStatus struct {
	Status              OperationStatusCode
	Progress            int
	Result              *VideoResult
	Error               string
	EstimatedCompletion *time.Time
}

// VideoResult is the provider-side output of a completed generation.
type VideoResult struct {
	URI             string
	DurationSeconds int
	Resolution      string
	FileSizeBytes   int64
}

// CostEstimate is returned by EstimateCost.
type CostEstimate struct {
	Cost     float64
	Currency string
}

// ProviderHealth reports a provider's current reachability.
type ProviderHealth struct {
	Healthy      bool
	ResponseTime time.Duration
	ErrorRate    float64
	LastChecked  time.Time
}

// VideoProvider is the uniform contract every adapter implements.
// Calls must not panic on network failure; they return a tagged error
// (see internal/apierr) instead.
type VideoProvider interface {
	Name() string

	Validate(ctx context.Context, req GenerationRequest) (*ValidationResult, error)
	Submit(ctx context.Context, req GenerationRequest) (*SubmitResult, error)
	Poll(ctx context.Context, operationID string) (*OperationStatus, error)
	FetchResult(ctx context.Context, operationID string) (*VideoResult, error)
	Cancel(ctx context.Context, operationID string) error
	EstimateCost(ctx context.Context, req GenerationRequest) (*CostEstimate, error)
	Health(ctx context.Context) (*ProviderHealth, error)
}
