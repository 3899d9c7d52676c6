package fsxlocal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/fsx"
)

// LocalFileSystem reads files below a root directory on local disk.
type LocalFileSystem struct {
	basePath string
}

var _ fsx.FileReader = (*LocalFileSystem)(nil)

// NewLocalFileSystem roots the reader at basePath, which must exist.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path %s is not a directory", abs)
	}

	return &LocalFileSystem{basePath: abs}, nil
}

func (fs *LocalFileSystem) GetBasePath() string {
	return fs.basePath
}

func (fs *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	full, err := fs.fullPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsx.NotFound(path)
		}
		return nil, fsx.ReadFailed(path, err)
	}
	return data, nil
}

func (fs *LocalFileSystem) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	full, err := fs.fullPath(path)
	if err != nil {
		return fsx.FileInfo{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fsx.FileInfo{}, fsx.NotFound(path)
		}
		return fsx.FileInfo{}, fsx.ReadFailed(path, err)
	}

	return fsx.FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (fs *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := fs.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if errx.HasCode(err, fsx.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// fullPath resolves path below the root. Leading slashes and ".." segments
// cannot climb above basePath.
func (fs *LocalFileSystem) fullPath(path string) (string, error) {
	if path == "" {
		return "", fsx.NotFound(path)
	}
	return filepath.Join(fs.basePath, filepath.Clean("/"+path)), nil
}
