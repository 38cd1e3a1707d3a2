package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

// DefaultMaxUploadBytes is the upload limit when none is configured.
const DefaultMaxUploadBytes int64 = 16 << 20

// maxKeyNameLen caps the filename part of a blob key, keeping keys well
// under the 255-byte file name limit of common filesystems.
const maxKeyNameLen = 128

var allowedExtensions = map[models.MediaType]map[string]bool{
	models.MediaImage: {"png": true, "jpg": true, "jpeg": true, "gif": true},
	models.MediaVideo: {"mp4": true, "mov": true, "avi": true, "mkv": true},
}

type MediaService interface {
	// Attach validates an uploaded file, stores it and links it to the
	// incident. If the link cannot be recorded the stored blob is removed
	// again before ErrStorage is returned.
	Attach(ctx context.Context, incidentID int64, mediaType string, data []byte, filename string) (*models.Attachment, error)
}

type mediaService struct {
	incidents repository.IncidentRepository
	media     repository.MediaRepository
	blobs     storage.BlobStore
	maxBytes  int64
	logger    *zap.Logger
}

func NewMediaService(incidents repository.IncidentRepository, media repository.MediaRepository, blobs storage.BlobStore, maxBytes int64, logger *zap.Logger) MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &mediaService{
		incidents: incidents,
		media:     media,
		blobs:     blobs,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// ParseMediaType returns the media type named by s.
func ParseMediaType(s string) (models.MediaType, error) {
	switch mt := models.MediaType(s); mt {
	case models.MediaImage, models.MediaVideo:
		return mt, nil
	}
	return "", fmt.Errorf("%w: Invalid media type", ErrValidation)
}

// validateUpload checks everything about an upload that does not need
// storage: type, presence, extension and size.
func (s *mediaService) validateUpload(mediaType string, data []byte, filename string) (models.MediaType, error) {
	kind, err := ParseMediaType(mediaType)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: No file provided", ErrValidation)
	}
	if filename == "" {
		return "", fmt.Errorf("%w: No file selected", ErrValidation)
	}
	if !allowedExtensions[kind][storage.Extension(filename)] {
		return "", fmt.Errorf("%w: Invalid %s file type", ErrValidation, kind)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, s.maxBytes)
	}
	return kind, nil
}

// blobKey combines the incident id, a random fragment and the sanitised
// filename. The fragment keeps two uploads of the same name from sharing a
// blob. Names that sanitise to nothing usable become "upload.<ext>"; long
// names are cut down to maxKeyNameLen with the extension kept.
func blobKey(incidentID int64, filename string) string {
	ext := storage.Extension(filename)
	clean := storage.SanitizeFilename(filename)
	if clean == "" || storage.Extension(clean) != ext || clean == ext {
		clean = "upload." + ext
	}
	clean = storage.TruncateFilename(clean, maxKeyNameLen)
	return fmt.Sprintf("%d_%s_%s", incidentID, uuid.NewString()[:8], clean)
}

func (s *mediaService) Attach(ctx context.Context, incidentID int64, mediaType string, data []byte, filename string) (*models.Attachment, error) {
	kind, err := s.validateUpload(mediaType, data, filename)
	if err != nil {
		return nil, err
	}

	exists, err := s.incidents.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up incident: %v", ErrStorage, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: Incident not found", ErrNotFound)
	}

	key := blobKey(incidentID, filename)

	url, err := s.blobs.Put(ctx, storage.Object{Key: key, Kind: kind, Data: data})
	if err != nil {
		s.logger.Error("Failed to store upload", zap.Int64("incident_id", incidentID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: Error uploading %s: %v", ErrStorage, kind, err)
	}

	if err := s.link(ctx, incidentID, kind, url); err != nil {
		s.logger.Error("Failed to record upload, removing blob",
			zap.Int64("incident_id", incidentID),
			zap.String("key", key),
			zap.Error(err))
		// The request context may already be cancelled.
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key, kind); delErr != nil {
			s.logger.Error("Failed to remove orphaned blob", zap.String("key", key), zap.Error(delErr))
			return nil, fmt.Errorf("%w: Error uploading %s: %v (blob cleanup failed: %v)", ErrStorage, kind, err, delErr)
		}
		return nil, fmt.Errorf("%w: Error uploading %s: %v", ErrStorage, kind, err)
	}

	s.logger.Info("Media attached",
		zap.Int64("incident_id", incidentID),
		zap.String("media_type", string(kind)),
		zap.String("url", url))
	return &models.Attachment{MediaType: kind, URL: url}, nil
}

func (s *mediaService) link(ctx context.Context, incidentID int64, kind models.MediaType, url string) error {
	if kind == models.MediaImage {
		return s.media.CreateImage(ctx, &models.IncidentImage{ReportID: incidentID, URL: url})
	}
	return s.media.CreateVideo(ctx, &models.IncidentVideo{ReportID: incidentID, URL: url})
}
