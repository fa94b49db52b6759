package entity

import (
	"time"

	"github.com/google/uuid"
)

// VideoArtifact is the metadata record for a finished video stored in the
// artifact store. Immutable after upload except for access statistics.
type VideoArtifact struct {
	ID              uuid.UUID  `json:"id"`
	GenerationID    uuid.UUID  `json:"generationId"`
	UserID          uuid.UUID  `json:"userId"`
	Filename        string     `json:"filename"`
	ContentType     string     `json:"contentType"`
	SizeBytes       int64      `json:"sizeBytes"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	Resolution      *string    `json:"resolution,omitempty"`
	ThumbnailURL    *string    `json:"thumbnailUrl,omitempty"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	LastAccessedAt  *time.Time `json:"lastAccessedAt,omitempty"`
	AccessCount     int64      `json:"accessCount"`
}

// RecordAccess bumps access stats on signed-URL issuance.
func (a *VideoArtifact) RecordAccess() {
	now := time.Now()
	a.LastAccessedAt = &now
	a.AccessCount++
}
