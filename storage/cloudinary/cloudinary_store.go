package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/storage"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Store uploads images into one Cloudinary folder
type Store struct {
	cld    *cloudinary.Cloudinary
	folder string

	mu          sync.Mutex
	folderReady bool
}

func NewStore(cfg *config.Cloudinary) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}

	return &Store{
		cld:    cld,
		folder: cfg.Folder,
	}, nil
}

func (s *Store) Upload(ctx context.Context, image model.ImageUpload) (string, error) {
	if err := s.ensureFolder(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrUpload, err)
	}

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(image.Data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     uuid.New().String(),
		Format:       strings.TrimPrefix(image.Extension, "."),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrUpload, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", storage.ErrUpload, result.Error.Message)
	}

	return result.SecureURL, nil
}

// ensureFolder creates the folder on first use. A failed attempt is retried
// on the next upload.
func (s *Store) ensureFolder(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folderReady {
		return nil
	}

	result, err := s.cld.Admin.CreateFolder(ctx, admin.CreateFolderParams{Folder: s.folder})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}

	s.folderReady = true
	return nil
}
