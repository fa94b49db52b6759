// Package workflow implements the orchestration phase machine: start,
// submitClarification, confirmGeneration, processGeneration, and
// cancelGeneration. It owns no state of its own — every mutation is
// routed through the job store, queue manager, provider registry, and
// artifact store it is constructed with.
package workflow

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/catalog"
	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/arabella/vidforge/internal/domain/service"
	"github.com/arabella/vidforge/internal/infrastructure/artifact"
	"github.com/arabella/vidforge/internal/infrastructure/jobstore"
	"github.com/arabella/vidforge/internal/infrastructure/provider"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClarificationQuestion is one deterministically generated gap in the
// request that the caller must resolve before confirmation.
type ClarificationQuestion struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	Question string `json:"question"`
}

// StartResult is returned by Start.
type StartResult struct {
	Job                    *entity.Job
	ClarificationRequired  bool
	ClarificationQuestions []ClarificationQuestion
	EstimatedCost          *service.CostEstimate
}

// Workflow wires the components the phase machine drives.
type Workflow struct {
	jobs      *jobstore.Store
	queue     *queue.Manager
	providers *provider.Registry
	models    *catalog.Registry
	artifacts *artifact.Store
	logger    *zap.Logger

	clarificationsEnabled bool
	progressTrackingEnabled bool
}

// New constructs a Workflow from its dependencies.
func New(
	jobs *jobstore.Store,
	q *queue.Manager,
	providers *provider.Registry,
	models *catalog.Registry,
	artifacts *artifact.Store,
	logger *zap.Logger,
	clarificationsEnabled bool,
	progressTrackingEnabled bool,
) *Workflow {
	return &Workflow{
		jobs:      jobs,
		queue:     q,
		providers: providers,
		models:    models,
		artifacts: artifacts,
		logger:    logger,
		clarificationsEnabled:   clarificationsEnabled,
		progressTrackingEnabled: progressTrackingEnabled,
	}
}

// Jobs exposes the underlying job store for read-only lookups from the
// HTTP front-end (ownership checks, status polling).
func (w *Workflow) Jobs() *jobstore.Store {
	return w.jobs
}

// QueueDepth reports the number of entries currently waiting in the
// ready queue. The Start handler reports this plus one as the job's
// queue position, without regard to the job's priority — the job
// itself is not queued until it is confirmed.
func (w *Workflow) QueueDepth() int {
	return w.queue.Stats().Waiting
}

// Start resolves the model and provider, validates the request, and
// either surfaces clarification questions or creates the job.
func (w *Workflow) Start(ctx context.Context, userID uuid.UUID, prompt string, parameters map[string]any, modelID string, priority int) (*StartResult, error) {
	model, err := w.resolveModel(modelID)
	if err != nil {
		return nil, err
	}

	if err := validateParameters(model, parameters); err != nil {
		return nil, err
	}

	p, err := w.providers.SelectHealthy(ctx, model.Provider)
	if err != nil {
		return nil, err
	}

	req := service.GenerationRequest{Prompt: prompt, ModelID: model.ID, Parameters: parameters}

	validation, err := p.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return &StartResult{
			ClarificationRequired:  true,
			ClarificationQuestions: questionsFromSuggestions(validation.Suggestions),
		}, nil
	}

	cost, err := p.EstimateCost(ctx, req)
	if err != nil {
		return nil, err
	}

	job := entity.NewJob(userID, prompt, model.ID, p.Name(), parameters, priority)
	job.CostEstimate = cost.Cost
	if err := w.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	result := &StartResult{Job: job, EstimatedCost: cost}

	if w.clarificationsEnabled {
		questions := generateClarificationQuestions(prompt, parameters)
		if len(questions) > 0 {
			result.ClarificationRequired = true
			result.ClarificationQuestions = questions
			return result, nil
		}
	}

	// Nothing to clarify: move straight to pending_confirmation.
	if err := w.jobs.Transition(ctx, job.ID, entity.JobStatusPendingConfirmation, entity.JobHistoryCreated, "no clarification required"); err != nil {
		return nil, err
	}
	job.Status = entity.JobStatusPendingConfirmation
	return result, nil
}

// SubmitClarification records responses and moves the job to
// pending_confirmation.
func (w *Workflow) SubmitClarification(ctx context.Context, jobID uuid.UUID, responses map[string]string) (*entity.Job, error) {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != entity.JobStatusPendingClarification {
		return nil, apierr.ErrInvalidTransition
	}

	if err := w.jobs.Transition(ctx, jobID, entity.JobStatusPendingConfirmation, entity.JobHistoryCreated, "clarification submitted"); err != nil {
		return nil, err
	}
	if err := w.jobs.MergeClarifications(ctx, jobID, responses); err != nil {
		return nil, err
	}

	return w.jobs.GetByID(ctx, jobID)
}

// ConfirmGeneration rebuilds the canonical request, submits it to the
// provider, and enqueues the job for worker pickup.
func (w *Workflow) ConfirmGeneration(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != entity.JobStatusPendingConfirmation {
		return nil, apierr.ErrInvalidTransition
	}

	p, err := w.providers.SelectHealthy(ctx, job.ProviderID)
	if err != nil {
		return nil, err
	}

	req := service.GenerationRequest{
		JobID:      job.ID.String(),
		Prompt:     job.Prompt,
		ModelID:    job.ModelID,
		Parameters: mergeClarificationsIntoParameters(job.Parameters, job.Clarifications),
	}

	submit, err := p.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := w.jobs.SetOperationID(ctx, jobID, submit.OperationID); err != nil {
		return nil, err
	}
	if err := w.jobs.Transition(ctx, jobID, entity.JobStatusQueued, entity.JobHistoryStarted, "submitted to provider"); err != nil {
		return nil, err
	}

	if _, err := w.queue.AddToQueue(ctx, jobID, job.Priority); err != nil {
		return nil, err
	}

	return w.jobs.GetByID(ctx, jobID)
}

// ProcessGeneration advances a leased job by one poll step and reports
// whether the caller is finished with the job: done is true once the
// job is terminal, completed, or failed, or when a step returns an
// error. Safe to call repeatedly — a worker loop calls it until done
// is true.
func (w *Workflow) ProcessGeneration(ctx context.Context, jobID uuid.UUID, workerID string) (done bool, err error) {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return true, err
	}
	if job.Status.IsTerminal() {
		return true, nil
	}
	if job.OperationID == nil {
		return true, w.failJob(ctx, jobID, workerID, entity.JobError{Message: "job has no provider operation to poll"})
	}

	p, err := w.providers.SelectHealthy(ctx, job.ProviderID)
	if err != nil {
		return true, w.failJob(ctx, jobID, workerID, entity.JobError{Message: err.Error(), Code: string(apierr.CodeExternalService)})
	}

	if job.Status == entity.JobStatusQueued {
		if err := w.jobs.Transition(ctx, jobID, entity.JobStatusActive, entity.JobHistoryStarted, "leased by worker"); err != nil {
			return true, err
		}
	}

	status, err := p.Poll(ctx, *job.OperationID)
	if err != nil {
		return true, w.failJob(ctx, jobID, workerID, entity.JobError{Message: err.Error(), Code: string(apierr.CodeOf(err))})
	}

	switch status.Status {
	case service.OperationPending, service.OperationRunning:
		if w.progressTrackingEnabled {
			_ = w.jobs.UpdateProgress(ctx, jobID, status.Progress)
		}
		return false, nil

	case service.OperationCompleted:
		return true, w.completeJob(ctx, jobID, workerID, job, p, *job.OperationID)

	case service.OperationFailed, service.OperationCancelled:
		msg := status.Error
		if msg == "" {
			msg = fmt.Sprintf("provider reported status %s", status.Status)
		}
		return true, w.failJob(ctx, jobID, workerID, entity.JobError{Message: msg})

	default:
		return true, w.failJob(ctx, jobID, workerID, entity.JobError{Message: fmt.Sprintf("unknown provider status %q", status.Status)})
	}
}

func (w *Workflow) completeJob(ctx context.Context, jobID uuid.UUID, workerID string, job *entity.Job, p service.VideoProvider, operationID string) error {
	videoResult, err := p.FetchResult(ctx, operationID)
	if err != nil {
		return w.failJob(ctx, jobID, workerID, entity.JobError{Message: err.Error()})
	}

	data, err := downloadProviderVideo(ctx, videoResult.URI)
	if err != nil {
		return w.failJob(ctx, jobID, workerID, entity.JobError{Message: err.Error()})
	}

	uploaded, err := w.artifacts.Upload(ctx, artifact.UploadInput{
		GenerationID: jobID,
		UserID:       job.UserID,
		Filename:     fmt.Sprintf("%s.mp4", jobID),
		ContentType:  "video/mp4",
		Data:         data,
		Duration:     &videoResult.DurationSeconds,
		Resolution:   &videoResult.Resolution,
	})
	if err != nil {
		return w.failJob(ctx, jobID, workerID, entity.JobError{Message: err.Error()})
	}

	thumbnailURL := ""
	thumb, thumbErr := artifact.GeneratePlaceholderThumbnail(320, 180, jobID.String())
	if thumbErr == nil {
		if url, err := w.artifacts.UploadThumbnail(ctx, job.UserID, uploaded.ID, thumb); err == nil {
			thumbnailURL = url
		}
	}

	result := entity.JobResult{
		VideoURL:        w.artifacts.PublicURL(uploaded),
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: videoResult.DurationSeconds,
		Resolution:      videoResult.Resolution,
		FileSizeBytes:   videoResult.FileSizeBytes,
		Format:          "mp4",
	}
	if err := w.jobs.Complete(ctx, jobID, result); err != nil {
		return err
	}
	return w.queue.CompleteJob(ctx, jobID, workerID)
}

func (w *Workflow) failJob(ctx context.Context, jobID uuid.UUID, workerID string, jobErr entity.JobError) error {
	if err := w.jobs.Fail(ctx, jobID, jobErr); err != nil {
		return err
	}
	return w.queue.FailJob(ctx, jobID, workerID, true)
}

// CancelGeneration best-effort cancels the provider operation, then
// commits the local cancel and drops the job from the queue without
// retry.
func (w *Workflow) CancelGeneration(ctx context.Context, jobID uuid.UUID) error {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	if job.OperationID != nil {
		if p, err := w.providers.SelectHealthy(ctx, job.ProviderID); err == nil {
			_ = p.Cancel(ctx, *job.OperationID)
		}
	}

	if err := w.jobs.Cancel(ctx, jobID); err != nil {
		return err
	}
	return w.queue.FailJob(ctx, jobID, "", false)
}

func (w *Workflow) resolveModel(modelID string) (*catalog.Model, error) {
	if modelID == "" {
		return w.models.Default()
	}
	return w.models.Get(modelID)
}

// validateParameters rejects a request against the resolved model's
// declared bounds before a job is ever created. Duration is checked
// against both Parameters.Duration and Capabilities.MaxDurationSec,
// whichever is tighter; aspect_ratio and quality are checked against
// their declared option lists when the model declares any.
func validateParameters(model *catalog.Model, parameters map[string]any) error {
	maxDuration := model.Parameters.Duration.Max
	if model.Capabilities.MaxDurationSec > 0 && (maxDuration == 0 || model.Capabilities.MaxDurationSec < maxDuration) {
		maxDuration = model.Capabilities.MaxDurationSec
	}
	minDuration := model.Parameters.Duration.Min

	if raw, ok := parameters["duration"]; ok {
		duration, ok := numberFromAny(raw)
		if !ok {
			return apierr.New(apierr.CodeValidation, "duration must be a number")
		}
		if minDuration > 0 && duration < float64(minDuration) {
			return apierr.New(apierr.CodeValidation, fmt.Sprintf("duration must be at least %d seconds for model %s", minDuration, model.ID))
		}
		if maxDuration > 0 && duration > float64(maxDuration) {
			return apierr.New(apierr.CodeValidation, fmt.Sprintf("duration must be at most %d seconds for model %s", maxDuration, model.ID))
		}
	}

	if raw, ok := parameters["aspect_ratio"]; ok && len(model.Parameters.AspectRatio.Options) > 0 {
		ratio, ok := raw.(string)
		if !ok || !containsString(model.Parameters.AspectRatio.Options, ratio) {
			return apierr.New(apierr.CodeValidation, fmt.Sprintf("aspect_ratio must be one of %v for model %s", model.Parameters.AspectRatio.Options, model.ID))
		}
	}

	if raw, ok := parameters["quality"]; ok && len(model.Parameters.Quality.Options) > 0 {
		quality, ok := raw.(string)
		if !ok || !containsString(model.Parameters.Quality.Options, quality) {
			return apierr.New(apierr.CodeValidation, fmt.Sprintf("quality must be one of %v for model %s", model.Parameters.Quality.Options, model.ID))
		}
	}

	return nil
}

// numberFromAny accepts the numeric shapes a duration can arrive in:
// an int when set programmatically, a float64 when decoded from JSON
// into a map[string]any.
func numberFromAny(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func containsString(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func questionsFromSuggestions(suggestions []string) []ClarificationQuestion {
	out := make([]ClarificationQuestion, 0, len(suggestions))
	for i, s := range suggestions {
		out = append(out, ClarificationQuestion{
			ID:       fmt.Sprintf("provider-%d", i),
			Field:    "prompt",
			Question: s,
		})
	}
	return out
}

// generateClarificationQuestions deterministically derives missing or
// ambiguous inputs: no duration, no aspect_ratio, no quality, or a
// prompt under 20 characters each produce one question.
func generateClarificationQuestions(prompt string, parameters map[string]any) []ClarificationQuestion {
	var qs []ClarificationQuestion

	if _, ok := parameters["duration"]; !ok {
		qs = append(qs, ClarificationQuestion{ID: "duration", Field: "duration", Question: "How many seconds should the video run?"})
	}
	if _, ok := parameters["aspect_ratio"]; !ok {
		qs = append(qs, ClarificationQuestion{ID: "aspect_ratio", Field: "aspect_ratio", Question: "What aspect ratio do you want (e.g. 16:9, 9:16)?"})
	}
	if _, ok := parameters["quality"]; !ok {
		qs = append(qs, ClarificationQuestion{ID: "quality", Field: "quality", Question: "What quality tier should be used (standard, high)?"})
	}
	if len(prompt) < 20 {
		qs = append(qs, ClarificationQuestion{ID: "prompt_detail", Field: "prompt", Question: "Can you describe the scene in more detail?"})
	}

	return qs
}

func mergeClarificationsIntoParameters(parameters map[string]any, clarifications map[string]string) map[string]any {
	merged := make(map[string]any, len(parameters)+len(clarifications))
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range clarifications {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged
}

// downloadProviderVideo fetches the finished video from the provider's
// result URI so it can be re-uploaded to the artifact store.
func downloadProviderVideo(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeExternalService, "failed to build provider download request", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeExternalService, "failed to download provider video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(apierr.CodeExternalService, fmt.Sprintf("provider video download returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeExternalService, "failed to read provider video body", err)
	}
	return data, nil
}
