package project

import (
	"time"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

// Project is the persisted unit of editing work: a titled timeline plus
// a record of its most recent successful export.
type Project struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Tracks           []timeline.Track    `json:"tracks"`
	Subtitles        []timeline.Subtitle `json:"subtitles"`
	Duration         float64             `json:"duration"`
	LastExportURL    string              `json:"last_export_url,omitempty"`
	LastExportAt     time.Time           `json:"last_export_at,omitempty"`
	LastExportIsMock bool                `json:"last_export_is_mock"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ExportRecord tracks one pipeline run from submission to its terminal
// stage. Stage and Percent mirror the pipeline's progress events.
type ExportRecord struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Stage     string    `json:"stage"`
	Percent   int       `json:"percent"`
	URL       string    `json:"url,omitempty"`
	IsMock    bool      `json:"is_mock"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
