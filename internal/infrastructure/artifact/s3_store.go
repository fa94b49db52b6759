// Package artifact implements the Artifact Store: object storage for
// finished videos, thumbnails, and per-video metadata records.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var acceptedContentTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

// Store is the S3-backed Artifact Store.
type Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	cdnBaseURL    string
	presignTTL    time.Duration
	maxFileSize   int64
	logger        *zap.Logger
}

// Config configures a new Store.
type Config struct {
	Region       string
	Bucket       string
	CDNBaseURL   string
	AccessKey    string
	SecretKey    string
	PresignTTL   time.Duration
	MaxFileSize  int64
}

// NewStore builds an S3 client from static credentials, mirroring the
// object-storage wiring pattern used for R2-compatible buckets.
func NewStore(cfg Config, logger *zap.Logger) *Store {
	client := s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	})

	return &Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		cdnBaseURL:    cfg.CDNBaseURL,
		presignTTL:    cfg.PresignTTL,
		maxFileSize:   cfg.MaxFileSize,
		logger:        logger,
	}
}

func videoKey(userID, videoID uuid.UUID, filename string) string {
	return fmt.Sprintf("videos/%s/%s/%s", userID, videoID, filename)
}

func thumbnailKey(userID, videoID uuid.UUID) string {
	return fmt.Sprintf("thumbnails/%s/%s/thumbnail.jpg", userID, videoID)
}

func metadataKey(userID, videoID uuid.UUID) string {
	return fmt.Sprintf("metadata/%s/%s.json", userID, videoID)
}

// UploadInput carries the bytes and declared metadata for a new artifact.
type UploadInput struct {
	GenerationID uuid.UUID
	UserID       uuid.UUID
	Filename     string
	ContentType  string
	Data         []byte
	Duration     *int
	Resolution   *string
}

// Upload validates then writes the video bytes, followed by the
// metadata record. The write is not transactional: if the process
// crashes between the two writes, the video bytes are left with no
// metadata record. Cleanup walks only metadata, so it does not find
// such bytes.
func (s *Store) Upload(ctx context.Context, in UploadInput) (*entity.VideoArtifact, error) {
	if len(in.Data) == 0 {
		return nil, apierr.New(apierr.CodeValidation, "upload body is empty")
	}
	if int64(len(in.Data)) > s.maxFileSize {
		return nil, apierr.New(apierr.CodeValidation, "upload exceeds maximum file size")
	}
	if !filenamePattern.MatchString(in.Filename) {
		return nil, apierr.New(apierr.CodeValidation, "filename contains disallowed characters")
	}
	if !acceptedContentTypes[in.ContentType] {
		return nil, apierr.New(apierr.CodeValidation, "content type not accepted")
	}

	videoID := uuid.New()
	key := videoKey(in.UserID, videoID, in.Filename)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(in.Data),
		ContentType: aws.String(in.ContentType),
	}); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to upload video bytes", err)
	}

	artifact := &entity.VideoArtifact{
		ID:              videoID,
		GenerationID:    in.GenerationID,
		UserID:          in.UserID,
		Filename:        in.Filename,
		ContentType:     in.ContentType,
		SizeBytes:       int64(len(in.Data)),
		DurationSeconds: in.Duration,
		Resolution:      in.Resolution,
		UploadedAt:      time.Now(),
	}

	if err := s.writeMetadata(ctx, artifact); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "video uploaded but metadata write failed", err)
	}

	return artifact, nil
}

// PublicURL returns the CDN-fronted URL for an uploaded video, without
// requiring a fresh presign.
func (s *Store) PublicURL(artifact *entity.VideoArtifact) string {
	return fmt.Sprintf("%s/%s", s.cdnBaseURL, videoKey(artifact.UserID, artifact.ID, artifact.Filename))
}

func (s *Store) writeMetadata(ctx context.Context, artifact *entity.VideoArtifact) error {
	body, err := json.Marshal(artifact)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(metadataKey(artifact.UserID, artifact.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Download fetches the raw video bytes for an artifact.
func (s *Store) Download(ctx context.Context, userID, videoID uuid.UUID, filename string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(videoKey(userID, videoID, filename)),
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to download video", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to read video body", err)
	}
	return data, nil
}

// GetMetadata loads the VideoArtifact record.
func (s *Store) GetMetadata(ctx context.Context, userID, videoID uuid.UUID) (*entity.VideoArtifact, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(metadataKey(userID, videoID)),
	})
	if err != nil {
		return nil, apierr.ErrArtifactNotFound
	}
	defer result.Body.Close()

	var artifact entity.VideoArtifact
	if err := json.NewDecoder(result.Body).Decode(&artifact); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "corrupt artifact metadata", err)
	}
	return &artifact, nil
}

// SignedURL issues a time-bounded download URL, recording the access
// against the artifact's metadata.
func (s *Store) SignedURL(ctx context.Context, userID, videoID uuid.UUID) (string, error) {
	artifact, err := s.GetMetadata(ctx, userID, videoID)
	if err != nil {
		return "", err
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(videoKey(userID, videoID, artifact.Filename)),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", apierr.Wrap(apierr.CodeInternal, "failed to presign url", err)
	}

	artifact.RecordAccess()
	if werr := s.writeMetadata(ctx, artifact); werr != nil {
		s.logger.Warn("failed to persist access stats", zap.Error(werr), zap.Stringer("video_id", videoID))
	}

	return req.URL, nil
}

// Delete removes bytes, thumbnail, and metadata. It succeeds even if
// some component is already missing.
func (s *Store) Delete(ctx context.Context, userID, videoID uuid.UUID) error {
	artifact, err := s.GetMetadata(ctx, userID, videoID)
	if err == nil {
		_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(videoKey(userID, videoID, artifact.Filename)),
		})
	}
	_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(thumbnailKey(userID, videoID)),
	})
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(metadataKey(userID, videoID)),
	})
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "failed to delete artifact metadata", err)
	}
	return nil
}

// List returns artifacts owned by userID. The teacher's repository
// used SQL pagination; object storage has no native per-user index, so
// listing walks the metadata/ prefix for that user.
func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]entity.VideoArtifact, error) {
	prefix := fmt.Sprintf("metadata/%s/", userID)
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "failed to list artifacts", err)
	}

	var artifacts []entity.VideoArtifact
	for _, obj := range out.Contents {
		result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			continue
		}
		var artifact entity.VideoArtifact
		decodeErr := json.NewDecoder(result.Body).Decode(&artifact)
		result.Body.Close()
		if decodeErr != nil {
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// Cleanup walks the metadata prefix deleting artifacts whose
// UploadedAt predates the retention window. It selects by age only and
// does not check whether an artifact's video bytes still exist.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("metadata/"),
	})
	if err != nil {
		return 0, apierr.Wrap(apierr.CodeInternal, "failed to list metadata for cleanup", err)
	}

	cutoff := time.Now().Add(-retention)
	cleaned := 0

	for _, obj := range out.Contents {
		result, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: obj.Key})
		if err != nil {
			continue
		}
		var artifact entity.VideoArtifact
		decodeErr := json.NewDecoder(result.Body).Decode(&artifact)
		result.Body.Close()
		if decodeErr != nil {
			continue
		}

		if artifact.UploadedAt.Before(cutoff) {
			if err := s.Delete(ctx, artifact.UserID, artifact.ID); err == nil {
				cleaned++
			}
		}
	}

	return cleaned, nil
}
