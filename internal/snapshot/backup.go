package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Snapshotter writes a consistent copy of a database to a file.
type Snapshotter interface {
	Snapshot(ctx context.Context, destPath string) error
}

// Result describes a finished backup.
type Result struct {
	ModuleID  string    `json:"module_id"`
	Path      string    `json:"path"`
	Uploaded  bool      `json:"uploaded"`
	URL       string    `json:"url,omitempty"`
	URLExpiry time.Time `json:"url_expiry,omitempty"`
}

// Backup snapshots src into path and hands the file to up. With a
// NoopUploader the backup stays local and Uploaded is false.
func Backup(ctx context.Context, src Snapshotter, moduleID, path string, up Uploader) (*Result, error) {
	if err := src.Snapshot(ctx, path); err != nil {
		return nil, fmt.Errorf("snapshot module %s: %w", moduleID, err)
	}
	res := &Result{ModuleID: moduleID, Path: path}

	if err := up.Upload(ctx, moduleID, path); err != nil {
		return res, err
	}

	u, expiry, err := up.PresignedURL(ctx, moduleID)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return res, nil
	case err != nil:
		res.Uploaded = true
		return res, err
	}

	res.Uploaded = true
	res.URL = u
	res.URLExpiry = expiry

	slog.Info("snapshot uploaded",
		"component", "snapshot",
		"action", "snapshot_uploaded",
		"module_id", moduleID,
		"url_expiry", expiry,
	)
	return res, nil
}
