package handler

import (
	"net/http"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	"github.com/gin-gonic/gin"
)

// WorkerHandler implements the /api/workers routes used by out-of-process
// worker runtimes to register and heartbeat over HTTP.
type WorkerHandler struct {
	queue *queue.Manager
}

// NewWorkerHandler creates a new WorkerHandler.
func NewWorkerHandler(q *queue.Manager) *WorkerHandler {
	return &WorkerHandler{queue: q}
}

type workerInfo struct {
	Name           string   `json:"name"`
	Capabilities   []string `json:"capabilities,omitempty"`
	MaxConcurrency int      `json:"maxConcurrency,omitempty"`
}

type registerWorkerRequest struct {
	WorkerID   string     `json:"workerId" binding:"required"`
	WorkerInfo workerInfo `json:"workerInfo"`
}

// Register handles POST /api/workers/register.
func (h *WorkerHandler) Register(c *gin.Context) {
	var req registerWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.Wrap(apierr.CodeValidation, "invalid request body", err))
		return
	}

	maxConcurrency := req.WorkerInfo.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	w := entity.NewWorker(req.WorkerID, req.WorkerInfo.Name, req.WorkerInfo.Capabilities, maxConcurrency)
	h.queue.RegisterWorker(c.Request.Context(), w)

	c.JSON(http.StatusCreated, gin.H{"success": true, "worker": w})
}

type heartbeatRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
}

// Heartbeat handles POST /api/workers/heartbeat.
func (h *WorkerHandler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierr.Wrap(apierr.CodeValidation, "invalid request body", err))
		return
	}

	if err := h.queue.UpdateWorkerHeartbeat(c.Request.Context(), req.WorkerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
