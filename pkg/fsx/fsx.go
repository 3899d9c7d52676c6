// Package fsx abstracts where model artifacts are read from.
package fsx

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/inferq/pkg/errx"
)

// FileInfo describes a stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileReader is the read side of a file store.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound   = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	ErrReadFailed = fsxErrors.Register("READ_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to read file")
)

func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

func ReadFailed(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrReadFailed, cause).WithDetail("path", path)
}
