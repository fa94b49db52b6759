package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// GeneratePlaceholderThumbnail produces a deterministic solid-cover
// JPEG as a stand-in cover image. Native frame extraction from the
// video bytes is out of scope; this keeps every artifact with a
// browsable thumbnail until a real extractor is wired in.
func GeneratePlaceholderThumbnail(width, height int, seed string) ([]byte, error) {
	base := image.NewRGBA(image.Rect(0, 0, 1, 1))
	base.Set(0, 0, deterministicColor(seed))

	cover := imaging.Resize(base, width, height, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cover, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode placeholder thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func deterministicColor(seed string) color.RGBA {
	var h uint32 = 2166136261
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= 16777619
	}
	return color.RGBA{
		R: uint8(h >> 16),
		G: uint8(h >> 8),
		B: uint8(h),
		A: 255,
	}
}

// UploadThumbnail uploads a generated or supplied thumbnail under its
// video's key and links it onto the artifact metadata.
func (s *Store) UploadThumbnail(ctx context.Context, userID, videoID uuid.UUID, data []byte) (string, error) {
	key := thumbnailKey(userID, videoID)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	}); err != nil {
		return "", apierr.Wrap(apierr.CodeInternal, "failed to upload thumbnail", err)
	}

	artifact, err := s.GetMetadata(ctx, userID, videoID)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s", s.cdnBaseURL, key)
	artifact.ThumbnailURL = &url
	if err := s.writeMetadata(ctx, artifact); err != nil {
		return "", apierr.Wrap(apierr.CodeInternal, "failed to link thumbnail to metadata", err)
	}

	return url, nil
}
