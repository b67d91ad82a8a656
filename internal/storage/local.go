package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"dailybread/internal/logging"
)

// Local writes objects beneath a root directory.
type Local struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

// NewLocal returns a Local uploader rooted at dir. URLs are baseURL + "/" + key.
func NewLocal(dir, baseURL string, logger *slog.Logger) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: local directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %q: %w", dir, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{root: dir, baseURL: baseURL, logger: logging.NewComponentLogger(logger, "storage")}, nil
}

// Upload writes data atomically through a temp file in the target directory.
func (l *Local) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	key, err := validateKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storage: move into place %s: %w", key, err)
	}
	url := publicURL(l.baseURL, key)
	l.logger.Debug("object stored",
		logging.String("key", key),
		logging.String("content_type", contentType),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return url, nil
}
