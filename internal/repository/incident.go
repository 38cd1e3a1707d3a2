package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
)

type IncidentRepository interface {
	CreateIncident(ctx context.Context, incident *models.IncidentReport) error
	GetAllIncidents(ctx context.Context) ([]*models.IncidentReport, error)
	GetIncidentByID(ctx context.Context, id int64) (*models.IncidentReport, error)
	IncidentExists(ctx context.Context, id int64) (bool, error)
	UpdateIncident(ctx context.Context, incident *models.IncidentReport) error
	// DeleteIncident removes the report and its media rows in one transaction
	// and returns the URLs of the media that were removed.
	DeleteIncident(ctx context.Context, id int64) (*DeletedMedia, error)
}

// DeletedMedia lists the blob URLs whose rows went away with a report.
type DeletedMedia struct {
	ImageURLs []string
	VideoURLs []string
}

type incidentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewIncidentRepository(db *sqlx.DB, logger *zap.Logger) IncidentRepository {
	return &incidentRepository{db: db, logger: logger}
}

const incidentColumns = `id, user_id, description, status, latitude, longitude, created_at, updated_at`

func (r *incidentRepository) CreateIncident(ctx context.Context, incident *models.IncidentReport) error {
	query := r.db.Rebind(`INSERT INTO incident_reports (user_id, description, status, latitude, longitude, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, incident.UserID, incident.Description, incident.Status,
			incident.Latitude, incident.Longitude, incident.CreatedAt, incident.UpdatedAt).Scan(&incident.ID)
	})
}

func (r *incidentRepository) GetAllIncidents(ctx context.Context) ([]*models.IncidentReport, error) {
	incidents := []*models.IncidentReport{}
	query := `SELECT ` + incidentColumns + ` FROM incident_reports ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &incidents, query); err != nil {
		r.logger.Error("Failed to list incidents", zap.Error(err))
		return nil, err
	}
	if err := r.attachMedia(ctx, incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepository) GetIncidentByID(ctx context.Context, id int64) (*models.IncidentReport, error) {
	var incident models.IncidentReport
	query := r.db.Rebind(`SELECT ` + incidentColumns + ` FROM incident_reports WHERE id = ?`)
	if err := r.db.GetContext(ctx, &incident, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get incident", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if err := r.attachMedia(ctx, []*models.IncidentReport{&incident}); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) IncidentExists(ctx context.Context, id int64) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM incident_reports WHERE id = ?`)
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateIncident writes the mutable columns of incident back. Ownership is
// never rewritten.
func (r *incidentRepository) UpdateIncident(ctx context.Context, incident *models.IncidentReport) error {
	query := r.db.Rebind(`UPDATE incident_reports
	          SET description = ?, status = ?, latitude = ?, longitude = ?, updated_at = ?
	          WHERE id = ?`)
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, incident.Description, incident.Status,
			incident.Latitude, incident.Longitude, incident.UpdatedAt, incident.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *incidentRepository) DeleteIncident(ctx context.Context, id int64) (*DeletedMedia, error) {
	deleted := &DeletedMedia{}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &deleted.ImageURLs, tx.Rebind(`SELECT image_url FROM incident_images WHERE report_id = ?`), id); err != nil {
			return err
		}
		if err := tx.SelectContext(ctx, &deleted.VideoURLs, tx.Rebind(`SELECT video_url FROM incident_videos WHERE report_id = ?`), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM incident_images WHERE report_id = ?`), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM incident_videos WHERE report_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM incident_reports WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// attachMedia loads the images and videos of incidents with one query per
// media table.
func (r *incidentRepository) attachMedia(ctx context.Context, incidents []*models.IncidentReport) error {
	byID := make(map[int64]*models.IncidentReport, len(incidents))
	ids := make([]int64, 0, len(incidents))
	for _, incident := range incidents {
		incident.Images = []models.IncidentImage{}
		incident.Videos = []models.IncidentVideo{}
		byID[incident.ID] = incident
		ids = append(ids, incident.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`SELECT id, report_id, image_url FROM incident_images WHERE report_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var images []models.IncidentImage
	if err := r.db.SelectContext(ctx, &images, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to load incident images", zap.Error(err))
		return err
	}
	for _, img := range images {
		if incident, ok := byID[img.ReportID]; ok {
			incident.Images = append(incident.Images, img)
		}
	}

	query, args, err = sqlx.In(`SELECT id, report_id, video_url FROM incident_videos WHERE report_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var videos []models.IncidentVideo
	if err := r.db.SelectContext(ctx, &videos, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to load incident videos", zap.Error(err))
		return err
	}
	for _, vid := range videos {
		if incident, ok := byID[vid.ReportID]; ok {
			incident.Videos = append(incident.Videos, vid)
		}
	}
	return nil
}
