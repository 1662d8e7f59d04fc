// Package local stores uploads on disk and serves them from a static route.
// It stands in for Cloudinary when no credentials are configured.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/storage"
	"github.com/google/uuid"
)

type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *Store) Upload(ctx context.Context, image model.ImageUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrUpload, err)
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), image.Extension)
	savePath := filepath.Join(s.dir, filename)

	if err := os.WriteFile(savePath, image.Data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrUpload, err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, filename), nil
}

// Dir is the directory served under the public URL prefix
func (s *Store) Dir() string {
	return s.dir
}
