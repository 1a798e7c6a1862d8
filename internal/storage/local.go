package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps uploads on disk and serves them under PublicPrefix.
type LocalStore struct {
	dir       string
	prefix    string
	thumbSize int
	logger    *zap.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, publicPrefix string, thumbSize int, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dir, thumbDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return &LocalStore{dir: dir, prefix: publicPrefix, thumbSize: thumbSize, logger: logger}, nil
}

// Store writes the upload under its sanitized name. An existing file with the
// same name is replaced.
func (s *LocalStore) Store(_ context.Context, up Upload) (*StoredFile, error) {
	name, contentType, err := inspect(up)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), up.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	out := &StoredFile{
		URL:         s.prefix + name,
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(up.Data)),
	}
	out.ThumbnailURL = out.URL

	if data, ok := thumbnail(up.Data, name, s.thumbSize); ok {
		if err := os.WriteFile(filepath.Join(s.dir, thumbDir, name), data, 0o644); err != nil {
			s.logger.Warn("failed to save thumbnail", zap.String("file", name), zap.Error(err))
		} else {
			out.ThumbnailURL = s.prefix + thumbnailName(name)
		}
	}

	s.logger.Info("file stored", zap.String("file", name), zap.Int64("size", out.Size))
	return out, nil
}

// Path resolves a served filename to its location on disk.
func (s *LocalStore) Path(filename string) (string, error) {
	if !validName(filename) {
		return "", ErrInvalidName
	}
	return existing(filepath.Join(s.dir, filename))
}

// ThumbnailPath resolves a served thumbnail name to its location on disk.
func (s *LocalStore) ThumbnailPath(filename string) (string, error) {
	if !validName(filename) {
		return "", ErrInvalidName
	}
	return existing(filepath.Join(s.dir, thumbDir, filename))
}

func existing(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return p, nil
}
