package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

type IncidentService interface {
	List(ctx context.Context) ([]*models.IncidentReport, error)
	Create(ctx context.Context, ownerID int64, input models.CreateIncidentInput) (int64, error)
	Get(ctx context.Context, id int64) (*models.IncidentReport, error)
	Update(ctx context.Context, actorID, id int64, patch models.IncidentPatch) (*models.IncidentReport, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type incidentService struct {
	incidents repository.IncidentRepository
	blobs     storage.BlobStore
	now       func() time.Time
	logger    *zap.Logger
}

func NewIncidentService(incidents repository.IncidentRepository, blobs storage.BlobStore, logger *zap.Logger) IncidentService {
	return &incidentService{
		incidents: incidents,
		blobs:     blobs,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func (s *incidentService) List(ctx context.Context) ([]*models.IncidentReport, error) {
	incidents, err := s.incidents.GetAllIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list incidents: %v", ErrStorage, err)
	}
	return incidents, nil
}

func (s *incidentService) Create(ctx context.Context, ownerID int64, input models.CreateIncidentInput) (int64, error) {
	switch {
	case strings.TrimSpace(input.Description) == "":
		return 0, fmt.Errorf("%w: description is required", ErrValidation)
	case input.Latitude == nil:
		return 0, fmt.Errorf("%w: latitude is required", ErrValidation)
	case input.Longitude == nil:
		return 0, fmt.Errorf("%w: longitude is required", ErrValidation)
	}

	status := models.DefaultIncidentStatus
	if input.Status != nil && strings.TrimSpace(*input.Status) != "" {
		status = *input.Status
	}

	now := s.now()
	incident := &models.IncidentReport{
		UserID:      ownerID,
		Description: input.Description,
		Status:      status,
		Latitude:    *input.Latitude,
		Longitude:   *input.Longitude,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.incidents.CreateIncident(ctx, incident); err != nil {
		s.logger.Error("Failed to create incident", zap.Int64("user_id", ownerID), zap.Error(err))
		return 0, fmt.Errorf("%w: failed to create incident: %v", ErrStorage, err)
	}

	s.logger.Info("Incident created", zap.Int64("incident_id", incident.ID), zap.Int64("user_id", ownerID))
	return incident.ID, nil
}

func (s *incidentService) Get(ctx context.Context, id int64) (*models.IncidentReport, error) {
	incident, err := s.incidents.GetIncidentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: Incident not found", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get incident: %v", ErrStorage, err)
	}
	return incident, nil
}

// owned loads incident id and checks that actorID may mutate it.
func (s *incidentService) owned(ctx context.Context, actorID, id int64) (*models.IncidentReport, error) {
	incident, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.UserID != actorID {
		s.logger.Warn("Rejected mutation by non-owner",
			zap.Int64("incident_id", id),
			zap.Int64("owner_id", incident.UserID),
			zap.Int64("actor_id", actorID))
		return nil, ErrForbidden
	}
	return incident, nil
}

func (s *incidentService) Update(ctx context.Context, actorID, id int64, patch models.IncidentPatch) (*models.IncidentReport, error) {
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		return nil, fmt.Errorf("%w: status cannot be empty", ErrValidation)
	}

	incident, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(incident)
	incident.UpdatedAt = s.now()
	if err := s.incidents.UpdateIncident(ctx, incident); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: Incident not found", ErrNotFound)
		}
		s.logger.Error("Failed to update incident", zap.Int64("incident_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to update incident: %v", ErrStorage, err)
	}
	return incident, nil
}

func (s *incidentService) Delete(ctx context.Context, actorID, id int64) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}

	deleted, err := s.incidents.DeleteIncident(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: Incident not found", ErrNotFound)
		}
		s.logger.Error("Failed to delete incident", zap.Int64("incident_id", id), zap.Error(err))
		return fmt.Errorf("%w: failed to delete incident: %v", ErrStorage, err)
	}

	// The rows are gone; blobs that fail to delete here are left for the
	// janitor's orphan sweep.
	for _, url := range deleted.ImageURLs {
		s.removeBlob(ctx, url, models.MediaImage)
	}
	for _, url := range deleted.VideoURLs {
		s.removeBlob(ctx, url, models.MediaVideo)
	}

	s.logger.Info("Incident deleted", zap.Int64("incident_id", id))
	return nil
}

func (s *incidentService) removeBlob(ctx context.Context, url string, kind models.MediaType) {
	key := s.blobs.KeyFromURL(url)
	if key == "" {
		s.logger.Warn("Cannot derive blob key from media URL", zap.String("url", url))
		return
	}
	if err := s.blobs.Delete(ctx, key, kind); err != nil {
		s.logger.Error("Failed to delete media blob", zap.String("key", key), zap.Error(err))
	}
}
