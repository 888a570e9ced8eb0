package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
)

// ErrPathEscapesBase is returned for paths that resolve outside the storage directory
var ErrPathEscapesBase = errors.New("path escapes base directory")

// LocalFileStorage keeps receipt files under one base directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates the base directory if needed and returns the storage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// BaseDir returns the directory files are stored under
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// Save writes content to path via a temporary file so readers never see a partial file
func (s *LocalFileStorage) Save(ctx context.Context, path string, content []byte) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		s.logger.Error("Failed to create parent directories", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		s.logger.Error("Failed to write file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		s.logger.Error("Failed to move file into place", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved", zap.String("path", fullPath), zap.Int("size", len(content)))
	return nil
}

// Read returns the content stored at path
func (s *LocalFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Exists reports whether a regular file is stored at path
func (s *LocalFileStorage) Exists(ctx context.Context, path string) bool {
	fullPath, err := s.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes path; deleting a missing file succeeds
func (s *LocalFileStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath joins a relative path onto the base directory
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// resolve returns the absolute path for a relative one, refusing anything outside baseDir
func (s *LocalFileStorage) resolve(relativePath string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(s.GetFullPath(relativePath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesBase, relativePath)
	}
	return absPath, nil
}

var _ port.FileStorage = (*LocalFileStorage)(nil)
