// Package storage hosts product images and removes them again on delete.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotManaged is returned by Delete for URLs the store did not produce.
var ErrNotManaged = errors.New("image is not managed by this store")

// Upload is one image to persist. Reader wins over Ref; Ref is a remote URL or a data
// URL for stores that can ingest those.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Ref         string
}

// Asset is a hosted image.
type Asset struct {
	URL string
	ID  string
}

type ImageStore interface {
	Upload(ctx context.Context, u Upload) (*Asset, error)
	Delete(ctx context.Context, imageURL string) error
}
