package storage

import (
	"context"
	"errors"

	"github.com/Pauline-WN/AjaliApp/internal/models"
)

var ErrNotFound = errors.New("blob not found")

// Object is a blob to be written under Key.
type Object struct {
	Key  string
	Kind models.MediaType
	Data []byte
}

// BlobStore is where uploaded evidence files live.
type BlobStore interface {
	// Put writes obj and returns its public URL.
	Put(ctx context.Context, obj Object) (string, error)
	// Delete removes the blob written under key. Deleting a missing blob
	// is not an error.
	Delete(ctx context.Context, key string, kind models.MediaType) error
	// KeyFromURL recovers the key from a URL returned by Put.
	KeyFromURL(url string) string
}
