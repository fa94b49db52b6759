package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/service"
	"go.uber.org/zap"
)

// veoAdapter implements the Google/Veo long-running-operation shape.
// Only the operations path (submit → poll by name → done) is treated as
// normative; auxiliary validate-prompt/estimate-cost style endpoints
// seen in some deployments are not real Veo endpoints and are not
// bound here.
type veoAdapter struct {
	*baseAdapter
}

// NewVeoAdapter creates a provider adapter for the Google/Veo family.
func NewVeoAdapter(apiKey, baseURL string, adapterTimeout time.Duration, retryMax int, retryWait time.Duration, logger *zap.Logger) service.VideoProvider {
	return &veoAdapter{
		baseAdapter: newBaseAdapter(baseAdapterConfig{
			Name:      "veo",
			APIKey:    apiKey,
			BaseURL:   baseURL,
			Timeout:   adapterTimeout,
			RetryMax:  retryMax,
			RetryWait: retryWait,
			Logger:    logger,
		}),
	}
}

func (p *veoAdapter) Name() string { return "veo" }

type veoGenerateRequest struct {
	Prompt     string              `json:"prompt"`
	Parameters veoRequestParameters `json:"parameters"`
}

// veoRequestParameters is the provider's wire vocabulary. An adapter is
// responsible for mapping the core's canonical parameter names onto
// these wire names.
type veoRequestParameters struct {
	AspectRatio       string  `json:"aspectRatio,omitempty"`
	NegativePrompt    string  `json:"negativePrompt,omitempty"`
	GuidanceScale     float64 `json:"guidanceScale,omitempty"`
	NumInferenceSteps int     `json:"numInferenceSteps,omitempty"`
	Seed              int64   `json:"seed,omitempty"`
	DurationSeconds   int     `json:"durationSeconds,omitempty"`
}

func mapCanonicalParameters(params map[string]any) veoRequestParameters {
	out := veoRequestParameters{}
	if v, ok := params["aspect_ratio"].(string); ok {
		out.AspectRatio = v
	}
	if v, ok := params["negativePrompt"].(string); ok {
		out.NegativePrompt = v
	}
	if v, ok := params["guidanceScale"].(float64); ok {
		out.GuidanceScale = v
	}
	if v, ok := params["inferenceSteps"].(int); ok {
		out.NumInferenceSteps = v
	}
	if v, ok := params["seed"].(int64); ok {
		out.Seed = v
	}
	if v, ok := params["duration"].(int); ok {
		out.DurationSeconds = v
	}
	return out
}

type veoOperation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *veoError      `json:"error,omitempty"`
	Response *veoOperationResponse `json:"response,omitempty"`
	Metadata *veoOperationMetadata `json:"metadata,omitempty"`
}

type veoError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type veoOperationResponse struct {
	GeneratedSamples []veoSample `json:"generatedSamples"`
}

type veoSample struct {
	Video veoVideo `json:"video"`
}

type veoVideo struct {
	URI             string `json:"uri"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	FileSizeBytes   int64  `json:"fileSizeBytes,omitempty"`
	ThumbnailURI    string `json:"thumbnailUri,omitempty"`
}

type veoOperationMetadata struct {
	ProgressPercent int `json:"progressPercent"`
}

func (p *veoAdapter) doJSON(ctx context.Context, operation, method, url string, body any, out any) error {
	return p.call(ctx, operation, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reader = bytes.NewReader(b)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", p.apiKey)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &httpStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if out == nil {
			return nil
		}
		return json.Unmarshal(respBody, out)
	})
}

// Validate performs only prompt-shape checks locally. Veo has no
// documented validate-prompt endpoint (see open question in design
// notes); binding to one would be speculative.
func (p *veoAdapter) Validate(ctx context.Context, req service.GenerationRequest) (*service.ValidationResult, error) {
	if len(req.Prompt) < 3 {
		return &service.ValidationResult{Valid: false, Error: "prompt too short"}, nil
	}
	return &service.ValidationResult{Valid: true}, nil
}

func (p *veoAdapter) Submit(ctx context.Context, req service.GenerationRequest) (*service.SubmitResult, error) {
	wireReq := veoGenerateRequest{
		Prompt:     req.Prompt,
		Parameters: mapCanonicalParameters(req.Parameters),
	}

	var op veoOperation
	url := fmt.Sprintf("%s/models/veo-3.0-generate:generateVideo", p.baseURL)
	if err := p.doJSON(ctx, "submit", http.MethodPost, url, wireReq, &op); err != nil {
		return nil, apierr.Wrap(apierr.CodeExternalService, "veo submit failed", err)
	}

	status := service.OperationPending
	if op.Done {
		status = service.OperationCompleted
	}
	return &service.SubmitResult{OperationID: op.Name, Status: status}, nil
}

func (p *veoAdapter) Poll(ctx context.Context, operationID string) (*service.OperationStatus, error) {
	var op veoOperation
	url := fmt.Sprintf("%s/%s", p.baseURL, operationID)
	if err := p.doJSON(ctx, "poll", http.MethodGet, url, nil, &op); err != nil {
		return nil, apierr.Wrap(apierr.CodeExternalService, "veo poll failed", err)
	}

	if !op.Done {
		progress := 0
		if op.Metadata != nil {
			progress = op.Metadata.ProgressPercent
		}
		return &service.OperationStatus{Status: service.OperationRunning, Progress: progress}, nil
	}

	if op.Error != nil {
		return &service.OperationStatus{Status: service.OperationFailed, Error: op.Error.Message}, nil
	}

	if op.Response == nil || len(op.Response.GeneratedSamples) == 0 {
		return &service.OperationStatus{Status: service.OperationFailed, Error: "operation done with no result"}, nil
	}

	video := op.Response.GeneratedSamples[0].Video
	return &service.OperationStatus{
		Status:   service.OperationCompleted,
		Progress: 100,
		Result: &service.VideoResult{
			URI:             video.URI,
			DurationSeconds: video.DurationSeconds,
			Resolution:      video.Resolution,
			FileSizeBytes:   video.FileSizeBytes,
		},
	}, nil
}

func (p *veoAdapter) FetchResult(ctx context.Context, operationID string) (*service.VideoResult, error) {
	status, err := p.Poll(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if status.Result == nil {
		return nil, apierr.ErrGenerationFailed
	}
	return status.Result, nil
}

func (p *veoAdapter) Cancel(ctx context.Context, operationID string) error {
	url := fmt.Sprintf("%s/%s:cancel", p.baseURL, operationID)
	if err := p.doJSON(ctx, "cancel", http.MethodPost, url, nil, nil); err != nil {
		return apierr.Wrap(apierr.CodeExternalService, "veo cancel failed", err)
	}
	return nil
}

// EstimateCost is computed locally, not by a provider endpoint — Veo
// has no documented estimate-cost route. It charges a fixed 0.05 USD
// per second of the request's integer "duration" parameter (5 seconds
// when absent); the model catalog's pricing is not consulted.
func (p *veoAdapter) EstimateCost(ctx context.Context, req service.GenerationRequest) (*service.CostEstimate, error) {
	duration, _ := req.Parameters["duration"].(int)
	if duration == 0 {
		duration = 5
	}
	const defaultCostPerSecond = 0.05
	return &service.CostEstimate{Cost: float64(duration) * defaultCostPerSecond, Currency: "USD"}, nil
}

func (p *veoAdapter) Health(ctx context.Context) (*service.ProviderHealth, error) {
	start := time.Now()
	var out any
	url := fmt.Sprintf("%s/models", p.baseURL)
	err := p.doJSON(ctx, "health", http.MethodGet, url, nil, &out)
	elapsed := time.Since(start)

	if err != nil {
		return &service.ProviderHealth{Healthy: false, ResponseTime: elapsed, ErrorRate: 1.0, LastChecked: time.Now()}, nil
	}
	return &service.ProviderHealth{Healthy: true, ResponseTime: elapsed, ErrorRate: 0, LastChecked: time.Now()}, nil
}
