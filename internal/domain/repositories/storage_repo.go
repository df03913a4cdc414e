package repositories

import "context"

// FileStore performs the filesystem mutations of the pipeline. Callers pass
// paths that already went through the guard.
type FileStore interface {
	Delete(path string) error
	Move(src, dst string) error
	EnsureDir(dir string) error
	Exists(path string) bool
	Size(path string) (int64, error)
}

// VariantMirror copies produced variants to secondary storage.
type VariantMirror interface {
	Put(ctx context.Context, key, localPath, contentType string) error
	Delete(ctx context.Context, key string) error
}
