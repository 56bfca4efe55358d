package images

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

// filenameSanitizer strips characters that are awkward in object names.
var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Store writes point photos to the Firebase storage bucket under
// points/{uid}/{ts}_{name} and returns token-based download URLs.
type Store struct {
	bucket     *gcs.BucketHandle
	bucketName string
	log        zerolog.Logger
}

func NewStore(bucket *gcs.BucketHandle, bucketName string, log zerolog.Logger) *Store {
	return &Store{
		bucket:     bucket,
		bucketName: bucketName,
		log:        log.With().Str("component", "image-store").Logger(),
	}
}

// Put uploads the photo bytes and returns the download URL together with
// the object path (kept for a compensating delete if the point write
// fails afterwards).
func (s *Store) Put(ctx context.Context, ownerUID string, up domain.ImageUpload) (downloadURL, objectPath string, err error) {
	sanitized := filenameSanitizer.ReplaceAllString(up.Filename, "_")
	objectPath = fmt.Sprintf("points/%s/%d_%s", ownerUID, time.Now().UnixMilli(), sanitized)
	token := uuid.NewString()

	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = up.ContentType
	w.Metadata = map[string]string{
		"uploadedBy":                    ownerUID,
		"uploadedAt":                    time.Now().UTC().Format(time.RFC3339),
		"firebaseStorageDownloadTokens": token,
	}

	if _, err = w.Write(up.Data); err == nil {
		err = w.Close()
	} else {
		_ = w.Close()
	}
	if err != nil {
		return "", "", classifyUploadError(err)
	}

	downloadURL = fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucketName, url.PathEscape(objectPath), token,
	)
	return downloadURL, objectPath, nil
}

// Delete removes an uploaded object. Used as a compensating step when the
// point write fails after a successful upload; a missing object is fine.
func (s *Store) Delete(ctx context.Context, objectPath string) error {
	err := s.bucket.Object(objectPath).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete image %s: %w", objectPath, err)
	}
	return nil
}

// classifyUploadError separates permission/CORS-class failures, which need
// operator action, from transient upload failures.
func classifyUploadError(err error) error {
	msg := strings.ToLower(err.Error())
	if status.Code(err) == codes.PermissionDenied ||
		strings.Contains(msg, "cors") ||
		strings.Contains(msg, "permission") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden") {
		return fmt.Errorf("%w: %v", domain.ErrUploadPermission, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
}
