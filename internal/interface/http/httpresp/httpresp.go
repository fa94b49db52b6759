// Package httpresp centralizes the uniform error payload and tag-to-
// status mapping every handler and middleware uses.
package httpresp

import (
	"net/http"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
	Details   string `json:"details,omitempty"`
}

// IncludeDetails is toggled off in production deployments; Details is
// only populated when this is true.
var IncludeDetails = false

var statusByCode = map[apierr.Code]int{
	apierr.CodeValidation:         http.StatusBadRequest,
	apierr.CodeAuthentication:     http.StatusUnauthorized,
	apierr.CodeAuthorization:      http.StatusForbidden,
	apierr.CodeNotFound:           http.StatusNotFound,
	apierr.CodeConflict:           http.StatusConflict,
	apierr.CodeRateLimit:          http.StatusTooManyRequests,
	apierr.CodeServiceUnavailable: http.StatusServiceUnavailable,
	apierr.CodeExternalService:    http.StatusBadGateway,
	apierr.CodeInternal:           http.StatusInternalServerError,
}

// StatusFor maps a tagged error code to its HTTP status.
func StatusFor(code apierr.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error writes the uniform error payload for err and aborts the
// request chain.
func Error(c *gin.Context, err error) {
	code := apierr.CodeOf(err)
	status := StatusFor(code)

	body := ErrorBody{
		Error:     string(code),
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID(c),
	}
	if IncludeDetails {
		body.Details = err.Error()
	}

	c.AbortWithStatusJSON(status, body)
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
