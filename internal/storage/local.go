package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
)

const LocalURLPrefix = "/uploads/"

// BlobInfo describes a stored blob for housekeeping.
type BlobInfo struct {
	Key     string
	ModTime time.Time
}

// LocalStore keeps blobs as flat files in one directory and serves them
// under LocalURLPrefix.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	p, err := s.path(obj.Key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// O_EXCL: never overwrite a blob another record may point at.
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := f.Write(obj.Data); err != nil {
		f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}

	s.logger.Debug("Blob stored", zap.String("key", obj.Key), zap.Int("bytes", len(obj.Data)))
	return s.URL(obj.Key), nil
}

func (s *LocalStore) URL(key string) string {
	return LocalURLPrefix + key
}

func (s *LocalStore) Delete(_ context.Context, key string, _ models.MediaType) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) KeyFromURL(url string) string {
	key, ok := strings.CutPrefix(url, LocalURLPrefix)
	if !ok {
		return ""
	}
	return key
}

// Open resolves name to a file path for serving. Names with path components
// are rejected.
func (s *LocalStore) Open(name string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", ErrNotFound
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}

// List returns every regular file in the store.
func (s *LocalStore) List(ctx context.Context) ([]BlobInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	blobs := make([]BlobInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		blobs = append(blobs, BlobInfo{Key: entry.Name(), ModTime: info.ModTime()})
	}
	return blobs, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
