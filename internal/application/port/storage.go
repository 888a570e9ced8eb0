package port

import "context"

// FileStorage defines receipt file storage operations on paths relative to a base directory
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}
