package handler

import (
	"net/http"
	"time"

	"github.com/arabella/vidforge/config"
	"github.com/gin-gonic/gin"
)

// HealthHandler implements GET /health.
type HealthHandler struct {
	environment config.Environment
	version     string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(environment config.Environment, version string) *HealthHandler {
	return &HealthHandler{environment: environment, version: version}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"version":     h.version,
	})
}
