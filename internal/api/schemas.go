package api

import (
	"time"

	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/project"
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State          string `json:"state"`
	ProjectsCount  int    `json:"projects_count"`
	ExportsRunning int    `json:"exports_running"`
	TranscoderMock bool   `json:"transcoder_mock"`
}

type CreateProjectRequest struct {
	Title string `json:"title"`
}

type ProjectResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Duration         float64 `json:"duration"`
	LastExportURL    string  `json:"last_export_url,omitempty"`
	LastExportAt     string  `json:"last_export_at,omitempty"`
	LastExportIsMock bool    `json:"last_export_is_mock"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// SessionResponse is the full editor state plus history availability,
// returned by every session endpoint so the client never needs a
// follow-up read.
type SessionResponse struct {
	editor.State
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// OpRequest is the single envelope for all timeline edit operations.
// Type selects the operation; the other fields are read as that
// operation requires.
type OpRequest struct {
	Type string `json:"type"`

	TrackID    string             `json:"track_id,omitempty"`
	Clip       *timeline.Clip     `json:"clip,omitempty"`
	ClipID     string             `json:"clip_id,omitempty"`
	StartTime  float64            `json:"start_time,omitempty"`
	TrimStart  float64            `json:"trim_start,omitempty"`
	TrimEnd    float64            `json:"trim_end,omitempty"`
	SplitPoint float64            `json:"split_point,omitempty"`
	Subtitle   *timeline.Subtitle `json:"subtitle,omitempty"`
	SubtitleID string             `json:"subtitle_id,omitempty"`
	Volume     float64            `json:"volume,omitempty"`
	Playhead   float64            `json:"playhead,omitempty"`
	Zoom       float64            `json:"zoom,omitempty"`
	Playing    bool               `json:"playing,omitempty"`
}

type SubmitExportRequest struct {
	TrimOverrides    map[string]TrimOverrideRequest `json:"trim_overrides,omitempty"`
	Narration        map[string]string              `json:"narration,omitempty"`
	SubtitlesEnabled bool                           `json:"subtitles_enabled"`
	SubtitleStyle    timeline.SubtitleStyle         `json:"subtitle_style"`
	AudioMix         float64                        `json:"audio_mix"`
}

type TrimOverrideRequest struct {
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

type ExportResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Stage     string `json:"stage"`
	Percent   int    `json:"percent"`
	URL       string `json:"url,omitempty"`
	IsMock    bool   `json:"is_mock"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:               p.ID,
		Title:            p.Title,
		Duration:         p.Duration,
		LastExportURL:    p.LastExportURL,
		LastExportIsMock: p.LastExportIsMock,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
	if !p.LastExportAt.IsZero() {
		resp.LastExportAt = p.LastExportAt.Format(time.RFC3339)
	}
	return resp
}

func ExportToResponse(e *project.ExportRecord) ExportResponse {
	return ExportResponse{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Stage:     e.Stage,
		Percent:   e.Percent,
		URL:       e.URL,
		IsMock:    e.IsMock,
		Error:     e.Error,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}
