// Package storage holds the blob store used for venue images.
package storage

import (
	"context"
	"errors"

	"github.com/arunvm123/eventease/model"
)

// ErrUpload wraps every failure to store an object
var ErrUpload = errors.New("upload failed")

// BlobStore stores an object under a collision-free name and returns its
// public URL.
type BlobStore interface {
	Upload(ctx context.Context, image model.ImageUpload) (string, error)
}
