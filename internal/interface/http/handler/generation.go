package handler

import (
	"net/http"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/interface/http/middleware"
	"github.com/arabella/vidforge/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerationHandler implements the /api/generations routes: start,
// lookup, clarify, confirm.
type GenerationHandler struct {
	workflow *workflow.Workflow
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(wf *workflow.Workflow) *GenerationHandler {
	return &GenerationHandler{workflow: wf}
}

type startGenerationRequest struct {
	Prompt     string         `json:"prompt" binding:"required,min=3,max=5000"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	Model      string         `json:"model,omitempty"`
	Priority   int            `json:"priority,omitempty" binding:"min=0,max=10"`
}

// Start handles POST /api/generations.
func (h *GenerationHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	var req startGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.Wrap(apierr.CodeValidation, "invalid request body", err))
		return
	}

	result, err := h.workflow.Start(c.Request.Context(), userID, req.Prompt, req.Parameters, req.Model, req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.ClarificationRequired {
		body := gin.H{
			"success":                true,
			"clarificationRequired":  true,
			"clarificationQuestions": result.ClarificationQuestions,
		}
		if result.Job != nil {
			body["generationId"] = result.Job.ID
		}
		c.JSON(http.StatusOK, body)
		return
	}

	// The job is not enqueued until confirm; queuePosition is the number
	// of jobs waiting now plus one, without regard to the job's priority.
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"generationId":  result.Job.ID,
		"queuePosition": h.workflow.QueueDepth() + 1,
	})
}

// Get handles GET /api/generations/:id.
func (h *GenerationHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid generation id"))
		return
	}

	job, err := h.workflow.Jobs().GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		respondError(c, apierr.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "generation": job})
}

type clarifyRequest struct {
	Response   string `json:"response" binding:"required,min=1,max=2000"`
	QuestionID string `json:"questionId,omitempty"`
}

// Clarify handles POST /api/generations/:id/clarify.
func (h *GenerationHandler) Clarify(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid generation id"))
		return
	}

	var req clarifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.Wrap(apierr.CodeValidation, "invalid request body", err))
		return
	}

	job, err := h.workflow.Jobs().GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		respondError(c, apierr.ErrForbidden)
		return
	}

	field := req.QuestionID
	if field == "" {
		field = "prompt"
	}

	updated, err := h.workflow.SubmitClarification(c.Request.Context(), jobID, map[string]string{field: req.Response})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "generation": updated})
}

// Confirm handles POST /api/generations/:id/confirm.
func (h *GenerationHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid generation id"))
		return
	}

	job, err := h.workflow.Jobs().GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		respondError(c, apierr.ErrForbidden)
		return
	}

	confirmed, err := h.workflow.ConfirmGeneration(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "generation": confirmed})
}

// Cancel handles POST /api/generations/:id/cancel, a best-effort cancel
// of a generation in flight.
func (h *GenerationHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid generation id"))
		return
	}

	job, err := h.workflow.Jobs().GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		respondError(c, apierr.ErrForbidden)
		return
	}
	if !job.CanBeCancelled() {
		respondError(c, apierr.ErrJobNotCancellable)
		return
	}

	if err := h.workflow.CancelGeneration(c.Request.Context(), jobID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
