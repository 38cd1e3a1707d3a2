package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
)

// MediaRepository stores the rows that link uploaded blobs to reports.
type MediaRepository interface {
	CreateImage(ctx context.Context, image *models.IncidentImage) error
	CreateVideo(ctx context.Context, video *models.IncidentVideo) error
	IsReferenced(ctx context.Context, url string) (bool, error)
}

type mediaRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMediaRepository(db *sqlx.DB, logger *zap.Logger) MediaRepository {
	return &mediaRepository{db: db, logger: logger}
}

func (r *mediaRepository) CreateImage(ctx context.Context, image *models.IncidentImage) error {
	query := r.db.Rebind(`INSERT INTO incident_images (report_id, image_url) VALUES (?, ?) RETURNING id`)
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, image.ReportID, image.URL).Scan(&image.ID)
	})
}

func (r *mediaRepository) CreateVideo(ctx context.Context, video *models.IncidentVideo) error {
	query := r.db.Rebind(`INSERT INTO incident_videos (report_id, video_url) VALUES (?, ?) RETURNING id`)
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, video.ReportID, video.URL).Scan(&video.ID)
	})
}

// IsReferenced reports whether any image or video row points at url.
func (r *mediaRepository) IsReferenced(ctx context.Context, url string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT
		(SELECT COUNT(*) FROM incident_images WHERE image_url = ?) +
		(SELECT COUNT(*) FROM incident_videos WHERE video_url = ?)`)
	if err := r.db.GetContext(ctx, &count, query, url, url); err != nil {
		r.logger.Error("Failed to check media reference", zap.String("url", url), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}
