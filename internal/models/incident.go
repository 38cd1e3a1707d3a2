package models

import "time"

const DefaultIncidentStatus = "under investigation"

// IncidentReport represents a row of 'incident_reports' together with its media.
type IncidentReport struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Description string          `db:"description" json:"description"`
	Status      string          `db:"status" json:"status"`
	Latitude    float64         `db:"latitude" json:"latitude"`
	Longitude   float64         `db:"longitude" json:"longitude"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Images      []IncidentImage `db:"-" json:"images"`
	Videos      []IncidentVideo `db:"-" json:"videos"`
}

type IncidentImage struct {
	ID       int64  `db:"id" json:"id"`
	ReportID int64  `db:"report_id" json:"report_id"`
	URL      string `db:"image_url" json:"image_url"`
}

type IncidentVideo struct {
	ID       int64  `db:"id" json:"id"`
	ReportID int64  `db:"report_id" json:"report_id"`
	URL      string `db:"video_url" json:"video_url"`
}

// CreateIncidentInput is the body of POST /incidents. Latitude and longitude
// are pointers so that 0.0 is distinguishable from an absent field.
type CreateIncidentInput struct {
	Description string   `json:"description"`
	Status      *string  `json:"status"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// IncidentPatch carries the fields of a partial update; nil means "keep".
type IncidentPatch struct {
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Apply copies the present fields onto r.
func (p IncidentPatch) Apply(r *IncidentReport) {
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Latitude != nil {
		r.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		r.Longitude = *p.Longitude
	}
}

// MediaType is the kind of evidence attached to a report.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Attachment is the result of a successful upload.
type Attachment struct {
	MediaType MediaType `json:"media_type"`
	URL       string    `json:"url"`
}
