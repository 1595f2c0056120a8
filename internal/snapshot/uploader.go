// Package snapshot backs up module pattern databases and ships them to
// S3-compatible storage. When no bucket is configured the NoopUploader is
// used and backups stay local.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/forge/internal/config"
)

// ErrNotConfigured is returned when S3 snapshot storage is not configured.
var ErrNotConfigured = errors.New("snapshot storage not configured")

// Uploader uploads snapshots and generates pre-signed download URLs.
type Uploader interface {
	// Upload uploads the snapshot file of a module.
	Upload(ctx context.Context, moduleID string, filePath string) error

	// PresignedURL returns a pre-signed URL for downloading the snapshot.
	// Returns ErrNotConfigured when S3 is not configured.
	PresignedURL(ctx context.Context, moduleID string) (url string, expiry time.Time, err error)
}

// snapshotContentType is the media type recorded on uploaded objects.
const snapshotContentType = "application/vnd.sqlite3"

// s3Client is the subset of minio.Client used by S3Uploader.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

var _ s3Client = (*minio.Client)(nil)

// S3Uploader uploads snapshots to S3-compatible storage. Each module has a
// single object that every backup replaces.
type S3Uploader struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
	now       func() time.Time
}

// Upload puts the snapshot at filePath under the module's object key.
func (u *S3Uploader) Upload(ctx context.Context, moduleID string, filePath string) error {
	opts := minio.PutObjectOptions{
		ContentType:  snapshotContentType,
		UserMetadata: map[string]string{"module-id": moduleID},
	}
	if _, err := u.client.FPutObject(ctx, u.bucket, objectKey(moduleID), filePath, opts); err != nil {
		return fmt.Errorf("upload snapshot of %s: %w", moduleID, err)
	}
	return nil
}

// PresignedURL returns a time-limited GET link to the module's snapshot.
func (u *S3Uploader) PresignedURL(ctx context.Context, moduleID string) (string, time.Time, error) {
	// Download as <module>.db rather than the generic object name.
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", moduleID+".db"))

	issued := u.now()
	link, err := u.client.PresignedGetObject(ctx, u.bucket, objectKey(moduleID), u.urlExpiry, params)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign snapshot of %s: %w", moduleID, err)
	}
	return link.String(), issued.Add(u.urlExpiry), nil
}

// NoopUploader keeps backups local.
type NoopUploader struct{}

func (u *NoopUploader) Upload(ctx context.Context, moduleID string, filePath string) error {
	return nil
}

// PresignedURL always fails with ErrNotConfigured.
func (u *NoopUploader) PresignedURL(ctx context.Context, moduleID string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader returns a NoopUploader when bucket is empty and an
// S3Uploader otherwise.
func NewUploader(cfg config.SnapshotStorageConfig) (Uploader, error) {
	if !cfg.Enabled() {
		return &NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
		now:       time.Now,
	}, nil
}

// stripScheme removes an http:// or https:// prefix from endpoint, since
// minio wants a bare host. An explicit scheme decides useSSL.
func stripScheme(endpoint string, useSSL *bool) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		*useSSL = true
		return strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		*useSSL = false
		return strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// objectKey is modules/<module-id>/patterns.db.
func objectKey(moduleID string) string {
	return path.Join("modules", moduleID, "patterns.db")
}
