// Package snapshot stores exported catalogs on the local disk or in S3.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Sink stores and lists catalog snapshots by key.
type Sink interface {
	Store(ctx context.Context, key string, reader io.Reader) error
	List(ctx context.Context) ([]string, error)
}

// LocalSink writes snapshots under a directory.
type LocalSink struct {
	basePath string
	logger   *zap.Logger
}

var _ Sink = (*LocalSink)(nil)

// NewLocalSink returns a sink rooted at basePath. The directory is created
// by the first Store.
func NewLocalSink(basePath string, logger *zap.Logger) *LocalSink {
	return &LocalSink{
		basePath: basePath,
		logger:   logger.Named("snapshot"),
	}
}

// Store writes the snapshot through a temporary file so a partial copy never
// appears under key.
func (s *LocalSink) Store(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	s.logger.Debug("snapshot written", zap.String("path", path))
	return nil
}

// List returns stored keys in lexical order, which is also time order for
// the keys the catalog service generates.
func (s *LocalSink) List(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(s.basePath); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Path returns where key is stored.
func (s *LocalSink) Path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}
