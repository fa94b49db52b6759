package handler

import (
	"net/http"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/infrastructure/artifact"
	"github.com/arabella/vidforge/internal/interface/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StorageHandler implements the /api/storage/videos routes.
type StorageHandler struct {
	artifacts *artifact.Store
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(artifacts *artifact.Store) *StorageHandler {
	return &StorageHandler{artifacts: artifacts}
}

// List handles GET /api/storage/videos.
func (h *StorageHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	videos, err := h.artifacts.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// GetSignedURL handles GET /api/storage/videos/:id.
func (h *StorageHandler) GetSignedURL(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid video id"))
		return
	}

	url, err := h.artifacts.SignedURL(c.Request.Context(), userID, videoID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videoUrl": url})
}

// Delete handles DELETE /api/storage/videos/:id.
func (h *StorageHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apierr.ErrUnauthorized)
		return
	}

	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.New(apierr.CodeValidation, "invalid video id"))
		return
	}

	if err := h.artifacts.Delete(c.Request.Context(), userID, videoID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
