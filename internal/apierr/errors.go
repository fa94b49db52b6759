// Package apierr defines the tagged error taxonomy used across vidforge.
// Every error that can reach the HTTP front-end carries a Code so handlers
// can map it to a status without inspecting message strings.
package apierr

import (
	"errors"
	"fmt"
)

// Code tags an error with the HTTP-status family it maps to.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeAuthentication     Code = "authentication"
	CodeAuthorization      Code = "authorization"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeRateLimit          Code = "rate_limit"
	CodeServiceUnavailable Code = "service_unavailable"
	CodeExternalService    Code = "external_service"
	CodeInternal           Code = "internal"
)

// Error is a tagged application error carrying an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap tags err with code, preserving it as the unwrap chain.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the Code from err, walking the unwrap chain. Returns
// CodeInternal if err carries no tagged Error.
func CodeOf(err error) Code {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Code
	}
	return CodeInternal
}

// Sentinel errors for conditions callers commonly need to match with
// errors.Is rather than a full tagged Error.
var (
	ErrJobNotFound          = New(CodeNotFound, "job not found")
	ErrJobNotCancellable    = New(CodeConflict, "job cannot be cancelled in its current status")
	ErrJobAlreadyTerminal   = New(CodeConflict, "job already in a terminal status")
	ErrInvalidTransition    = New(CodeConflict, "invalid job status transition")
	ErrModelNotFound        = New(CodeNotFound, "model not found")
	ErrModelUnavailable     = New(CodeConflict, "model is not currently available")
	ErrArtifactNotFound     = New(CodeNotFound, "artifact not found")
	ErrWorkerNotFound       = New(CodeNotFound, "worker not found")
	ErrQueueFull            = New(CodeServiceUnavailable, "queue is at capacity")
	ErrProviderUnavailable  = New(CodeExternalService, "provider unavailable")
	ErrProviderRateLimited  = New(CodeExternalService, "provider rate limited")
	ErrProviderTimeout      = New(CodeExternalService, "provider timeout")
	ErrGenerationFailed     = New(CodeExternalService, "video generation failed")
	ErrInvalidPrompt        = New(CodeValidation, "invalid prompt")
	ErrInvalidParams        = New(CodeValidation, "invalid generation parameters")
	ErrInvalidToken         = New(CodeAuthentication, "invalid token")
	ErrTokenExpired         = New(CodeAuthentication, "token expired")
	ErrUnauthorized         = New(CodeAuthentication, "unauthorized")
	ErrForbidden            = New(CodeAuthorization, "forbidden")
	ErrRateLimitExceeded    = New(CodeRateLimit, "rate limit exceeded")
	ErrStorageUploadFailed  = New(CodeInternal, "storage upload failed")
	ErrStorageDownloadFailed = New(CodeInternal, "storage download failed")
)
