package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps objects as files below a root directory. It is used
// when no bucket is configured.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) Root() string {
	return l.root
}

// path maps an object name to a file below root, rejecting names that
// would escape it.
func (l *LocalStore) path(objectName string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(objectName))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	p := filepath.Join(l.root, clean)
	if !strings.HasPrefix(p, filepath.Clean(l.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return p, nil
}

func (l *LocalStore) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	p, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create object file: %w", err)
	}
	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write object file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close object file: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		PublicURL:  "file://" + filepath.ToSlash(p),
		Size:       size,
	}, nil
}

func (l *LocalStore) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	p, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, objectName)
	}
	return f, err
}

func (l *LocalStore) DeleteFile(ctx context.Context, objectName string) error {
	p, err := l.path(objectName)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, objectName)
	}
	return err
}

func (l *LocalStore) Close() error {
	return nil
}

// RemoveOlderThan deletes files whose modification time is older than
// maxAge and returns how many were removed.
func (l *LocalStore) RemoveOlderThan(maxAge time.Duration) (int, error) {
	removed := 0
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if time.Since(info.ModTime()) > maxAge {
			log.Printf("[INFO] Cleaning up old file: %s", path)
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
