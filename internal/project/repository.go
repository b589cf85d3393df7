package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rkanjani/ViralShorts/internal/timeline"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateTimeline(ctx context.Context, id string, tracks []timeline.Track, subtitles []timeline.Subtitle, duration float64) error
	UpdateLastExport(ctx context.Context, id, url string, isMock bool, at time.Time) error
	DeleteProject(ctx context.Context, id string) error

	CreateExport(ctx context.Context, e *ExportRecord) error
	GetExport(ctx context.Context, id string) (*ExportRecord, error)
	ListExports(ctx context.Context, projectID string, limit int) ([]*ExportRecord, error)
	UpdateExportProgress(ctx context.Context, id, stage string, percent int) error
	UpdateExportResult(ctx context.Context, id, stage, url string, isMock bool, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	tracks, subtitles, err := marshalTimeline(p.Tracks, p.Subtitles)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, tracks, subtitles, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, tracks, subtitles, p.Duration,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, tracks, subtitles, duration, last_export_url, last_export_at, last_export_is_mock, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return r.scanProject(row)
}

func (r *SQLiteRepository) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var tracks, subtitles string
	var lastURL, lastAt sql.NullString
	var lastMock int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Title, &tracks, &subtitles, &p.Duration, &lastURL, &lastAt, &lastMock, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := unmarshalTimeline(tracks, subtitles, &p); err != nil {
		return nil, err
	}
	p.LastExportURL = lastURL.String
	if lastAt.Valid {
		p.LastExportAt, _ = time.Parse(time.RFC3339, lastAt.String)
	}
	p.LastExportIsMock = lastMock == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, tracks, subtitles, duration, last_export_url, last_export_at, last_export_is_mock, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var tracks, subtitles string
		var lastURL, lastAt sql.NullString
		var lastMock int
		var createdAt, updatedAt string

		if err := rows.Scan(&p.ID, &p.Title, &tracks, &subtitles, &p.Duration, &lastURL, &lastAt, &lastMock, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalTimeline(tracks, subtitles, &p); err != nil {
			return nil, err
		}
		p.LastExportURL = lastURL.String
		if lastAt.Valid {
			p.LastExportAt, _ = time.Parse(time.RFC3339, lastAt.String)
		}
		p.LastExportIsMock = lastMock == 1
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateTimeline(ctx context.Context, id string, tracks []timeline.Track, subtitles []timeline.Subtitle, duration float64) error {
	tracksJSON, subtitlesJSON, err := marshalTimeline(tracks, subtitles)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects SET tracks = ?, subtitles = ?, duration = ?, updated_at = datetime('now') WHERE id = ?
	`, tracksJSON, subtitlesJSON, duration, id)
	return err
}

func (r *SQLiteRepository) UpdateLastExport(ctx context.Context, id, url string, isMock bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET last_export_url = ?, last_export_at = ?, last_export_is_mock = ?, updated_at = datetime('now')
		WHERE id = ?
	`, url, at.Format(time.RFC3339), boolToInt(isMock), id)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *ExportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, project_id, stage, percent, url, is_mock, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Stage, e.Percent, nullString(e.URL), boolToInt(e.IsMock), nullString(e.Error),
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*ExportRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, stage, percent, url, is_mock, error, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)

	var e ExportRecord
	var url, errMsg sql.NullString
	var isMock int
	var createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.ProjectID, &e.Stage, &e.Percent, &url, &isMock, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.URL = url.String
	e.IsMock = isMock == 1
	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func (r *SQLiteRepository) ListExports(ctx context.Context, projectID string, limit int) ([]*ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, stage, percent, url, is_mock, error, created_at, updated_at
		FROM exports WHERE project_id = ? ORDER BY created_at DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*ExportRecord
	for rows.Next() {
		var e ExportRecord
		var url, errMsg sql.NullString
		var isMock int
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Stage, &e.Percent, &url, &isMock, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.URL = url.String
		e.IsMock = isMock == 1
		e.Error = errMsg.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		exports = append(exports, &e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) UpdateExportProgress(ctx context.Context, id, stage string, percent int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET stage = ?, percent = ?, updated_at = datetime('now') WHERE id = ?
	`, stage, percent, id)
	return err
}

func (r *SQLiteRepository) UpdateExportResult(ctx context.Context, id, stage, url string, isMock bool, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET stage = ?, url = ?, is_mock = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, stage, nullString(url), boolToInt(isMock), nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func marshalTimeline(tracks []timeline.Track, subtitles []timeline.Subtitle) (string, string, error) {
	if tracks == nil {
		tracks = []timeline.Track{}
	}
	if subtitles == nil {
		subtitles = []timeline.Subtitle{}
	}
	tb, err := json.Marshal(tracks)
	if err != nil {
		return "", "", fmt.Errorf("marshal tracks: %w", err)
	}
	sb, err := json.Marshal(subtitles)
	if err != nil {
		return "", "", fmt.Errorf("marshal subtitles: %w", err)
	}
	return string(tb), string(sb), nil
}

func unmarshalTimeline(tracks, subtitles string, p *Project) error {
	if err := json.Unmarshal([]byte(tracks), &p.Tracks); err != nil {
		return fmt.Errorf("unmarshal tracks: %w", err)
	}
	if err := json.Unmarshal([]byte(subtitles), &p.Subtitles); err != nil {
		return fmt.Errorf("unmarshal subtitles: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
