package handler

import (
	"net/http"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/infrastructure/jobstore"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	"github.com/arabella/vidforge/internal/interface/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QueueHandler implements the /api/queue routes.
type QueueHandler struct {
	jobs  *jobstore.Store
	queue *queue.Manager
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(jobs *jobstore.Store, q *queue.Manager) *QueueHandler {
	return &QueueHandler{jobs: jobs, queue: q}
}

// GetJob handles GET /api/queue/jobs/:id.
func (h *QueueHandler) GetJob(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid job id"))
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		respondError(c, apierr.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// Stats handles GET /api/queue/stats.
func (h *QueueHandler) Stats(c *gin.Context) {
	stats := h.queue.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"waiting":          stats.Waiting,
			"active":           stats.Active,
			"completed":        stats.Completed,
			"failed":           stats.Failed,
			"delayed":          stats.Delayed,
			"totalProcessed":   stats.TotalProcessed,
			"avgProcessingTime": stats.AvgProcessingMS,
		},
	})
}

// Status handles GET /api/queue/status.
func (h *QueueHandler) Status(c *gin.Context) {
	status := h.queue.Status()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status": gin.H{
			"isPaused":    status.IsPaused,
			"queueLength": status.QueueLength,
			"activeJobs":  status.ActiveJobs,
			"workerCount": status.WorkerCount,
		},
	})
}
