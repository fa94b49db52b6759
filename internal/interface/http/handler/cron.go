package handler

import (
	"net/http"
	"time"

	"github.com/arabella/vidforge/internal/infrastructure/artifact"
	"github.com/arabella/vidforge/internal/infrastructure/jobstore"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CronHandler implements the cleanup hook as an HTTP route. The
// in-process cron scheduler in cmd/api runs the same three cleanups
// directly rather than through this handler.
type CronHandler struct {
	jobs             *jobstore.Store
	artifacts        *artifact.Store
	queue            *queue.Manager
	defaultRetention time.Duration
	workerInactivity time.Duration
	logger           *zap.Logger
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(jobs *jobstore.Store, artifacts *artifact.Store, q *queue.Manager, defaultRetention, workerInactivity time.Duration, logger *zap.Logger) *CronHandler {
	return &CronHandler{
		jobs:             jobs,
		artifacts:        artifacts,
		queue:            q,
		defaultRetention: defaultRetention,
		workerInactivity: workerInactivity,
		logger:           logger,
	}
}

type cleanupRequest struct {
	OlderThanDays int `json:"olderThanDays,omitempty"`
}

// Cleanup handles POST /api/cron/cleanup, invoking Job Store cleanup,
// Artifact Store cleanup, and Worker cleanup with the configured (or
// request-overridden) retention.
func (h *CronHandler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	_ = c.ShouldBindJSON(&req)

	retention := h.defaultRetention
	if req.OlderThanDays > 0 {
		retention = time.Duration(req.OlderThanDays) * 24 * time.Hour
	}

	ctx := c.Request.Context()

	jobsCleaned, err := h.jobs.Cleanup(ctx, retention)
	if err != nil {
		h.logger.Error("job store cleanup failed", zap.Error(err))
	}

	videosCleaned, err := h.artifacts.Cleanup(ctx, retention)
	if err != nil {
		h.logger.Error("artifact store cleanup failed", zap.Error(err))
	}

	workersCleaned, err := h.queue.CleanupInactiveWorkers(ctx, h.workerInactivity)
	if err != nil {
		h.logger.Error("worker cleanup failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"jobsCleaned":    jobsCleaned,
		"videosCleaned":  videosCleaned,
		"workersCleaned": workersCleaned,
	})
}
