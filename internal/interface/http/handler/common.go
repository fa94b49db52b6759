// Package handler implements the HTTP front-end's route handlers.
package handler

import (
	"github.com/arabella/vidforge/internal/interface/http/httpresp"
	"github.com/gin-gonic/gin"
)

// respondError writes the uniform error payload and aborts the chain.
func respondError(c *gin.Context, err error) {
	httpresp.Error(c, err)
}
