package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FSStore writes objects as files under a base directory, keeping the key
// layout. It is meant for dry runs.
type FSStore struct {
	fs     afero.Fs
	base   string
	logger *zap.Logger
}

// NewFSStore creates a store rooted at base on fs
func NewFSStore(fs afero.Fs, base string, logger *zap.Logger) (*FSStore, error) {
	if err := fs.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FSStore{fs: fs, base: base, logger: logger}, nil
}

// Put writes obj to base/key, replacing any existing file
func (s *FSStore) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := path.Clean("/" + obj.Key)
	if clean == "/" || strings.HasSuffix(obj.Key, "/") {
		return fmt.Errorf("invalid object key %q", obj.Key)
	}
	name := filepath.Join(s.base, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if err := s.fs.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", obj.Key, err)
	}
	if err := afero.WriteFile(s.fs, name, obj.Body, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	s.logger.Debug("object stored", zap.String("path", name), zap.Int("bytes", len(obj.Body)))
	return nil
}

// Location returns the base directory
func (s *FSStore) Location() string {
	return s.base
}
