package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
)

const cloudinaryTimeout = 60 * time.Second

// CloudinaryStore keeps blobs in a Cloudinary folder. Images and videos use
// the matching Cloudinary resource type.
type CloudinaryStore struct {
	client *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

func NewCloudinaryStore(cloudinaryURL, folder string, logger *zap.Logger) (*CloudinaryStore, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{client: client, folder: strings.Trim(folder, "/"), logger: logger}, nil
}

func (s *CloudinaryStore) Put(ctx context.Context, obj Object) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cloudinaryTimeout)
	defer cancel()

	overwrite := false
	result, err := s.client.Upload.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID(obj.Key),
		ResourceType: string(obj.Kind),
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, key string, kind models.MediaType) error {
	ctx, cancel := context.WithTimeout(ctx, cloudinaryTimeout)
	defer cancel()

	id := publicID(key)
	if s.folder != "" && !strings.HasPrefix(id, s.folder+"/") {
		id = s.folder + "/" + id
	}
	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     id,
		ResourceType: string(kind),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob from cloudinary: %w", err)
	}
	return nil
}

// KeyFromURL extracts the folder-qualified public id from a delivery URL
// such as https://res.cloudinary.com/<cloud>/image/upload/v123/<folder>/<id>.jpg.
func (s *CloudinaryStore) KeyFromURL(url string) string {
	parts := strings.SplitN(url, "/upload/", 2)
	if len(parts) < 2 {
		return ""
	}
	segments := strings.Split(parts[1], "/")
	if len(segments) > 1 && isVersionSegment(segments[0]) {
		segments = segments[1:]
	}
	return publicID(strings.Join(segments, "/"))
}

// publicID drops the extension; Cloudinary appends the format itself.
func publicID(key string) string {
	if i := strings.LastIndex(key, "."); i > strings.LastIndex(key, "/") {
		return key[:i]
	}
	return key
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
