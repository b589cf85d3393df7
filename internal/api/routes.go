package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/project"
	"github.com/rkanjani/ViralShorts/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))

		r.Post("/projects/{id}/session/open", openSessionHandler(cfg))
		r.Get("/projects/{id}/session", getSessionHandler(cfg))
		r.Post("/projects/{id}/session/ops", applyOpHandler(cfg))
		r.Post("/projects/{id}/session/undo", undoHandler(cfg))
		r.Post("/projects/{id}/session/redo", redoHandler(cfg))
		r.Post("/projects/{id}/session/save", saveSessionHandler(cfg))
		r.Post("/projects/{id}/session/close", closeSessionHandler(cfg))

		r.Get("/preview/media", previewHandler(cfg))
		r.Get("/media/exports/{name}", exportMediaHandler(cfg))

		r.Post("/projects/{id}/exports", submitExportHandler(cfg))
		r.Get("/projects/{id}/exports", listExportsHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
		r.Get("/exports/{id}/events", exportEventsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, _ := cfg.Repository.ListProjects(r.Context())
		running := cfg.Exports.ActiveCount()

		state := "idle"
		if running > 0 {
			state = "exporting"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:          state,
			ProjectsCount:  len(projects),
			ExportsRunning: running,
			TranscoderMock: cfg.TranscoderMock,
		})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Repository.ListProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Title == "" {
			WriteError(w, http.StatusBadRequest, "title is required", "BAD_REQUEST")
			return
		}

		now := time.Now().UTC()
		p := newProject(req.Title, now)
		if err := cfg.Repository.CreateProject(r.Context(), p); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.Repository.GetProject(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Repository.DeleteProject(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		cfg.Sessions.Close(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// openSessionHandler loads the persisted timeline into a fresh session,
// resetting any prior history for that project.
func openSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.Repository.GetProject(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		var resp SessionResponse
		cfg.Sessions.With(id, func(sess *editor.Session) {
			sess.LoadProjectData(p.Tracks, p.Subtitles)
			resp = sessionResponse(sess)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var resp SessionResponse
		cfg.Sessions.With(id, func(sess *editor.Session) {
			resp = sessionResponse(sess)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func applyOpHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var op OpRequest
		if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var resp SessionResponse
		known := true
		cfg.Sessions.With(id, func(sess *editor.Session) {
			known = applyOp(sess, op)
			resp = sessionResponse(sess)
		})
		if !known {
			WriteError(w, http.StatusBadRequest, "unknown operation type: "+op.Type, "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// applyOp dispatches one edit operation onto the session. Unknown types
// are the only rejection; degenerate arguments are clamped or ignored
// by the operations themselves.
func applyOp(sess *editor.Session, op OpRequest) bool {
	switch op.Type {
	case "add_clip":
		if op.Clip != nil {
			sess.AddClip(op.TrackID, *op.Clip)
		}
	case "remove_clip":
		sess.RemoveClip(op.ClipID)
	case "move_clip":
		sess.MoveClip(op.ClipID, op.StartTime, op.TrackID)
	case "trim_clip":
		sess.TrimClip(op.ClipID, op.TrimStart, op.TrimEnd)
	case "split_clip":
		sess.SplitClip(op.ClipID, op.SplitPoint)
	case "copy_clip":
		sess.CopyClip(op.ClipID)
	case "paste_clip":
		sess.PasteClip()
	case "add_subtitle":
		if op.Subtitle != nil {
			sess.AddSubtitle(*op.Subtitle)
		}
	case "update_subtitle":
		if op.Subtitle != nil {
			sess.UpdateSubtitle(*op.Subtitle)
		}
	case "remove_subtitle":
		sess.RemoveSubtitle(op.SubtitleID)
	case "toggle_track_mute":
		sess.ToggleTrackMute(op.TrackID)
	case "toggle_track_lock":
		sess.ToggleTrackLock(op.TrackID)
	case "toggle_track_visibility":
		sess.ToggleTrackVisibility(op.TrackID)
	case "set_track_volume":
		sess.SetTrackVolume(op.TrackID, op.Volume)
	case "set_playhead":
		sess.SetPlayhead(op.Playhead)
	case "set_zoom":
		sess.SetZoom(op.Zoom)
	case "set_playing":
		sess.SetPlaying(op.Playing)
	case "select_clip":
		sess.SelectClip(op.ClipID)
	case "select_subtitle":
		sess.SelectSubtitle(op.SubtitleID)
	default:
		return false
	}
	return true
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var resp SessionResponse
		cfg.Sessions.With(id, func(sess *editor.Session) {
			sess.Undo()
			resp = sessionResponse(sess)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var resp SessionResponse
		cfg.Sessions.With(id, func(sess *editor.Session) {
			sess.Redo()
			resp = sessionResponse(sess)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

// saveSessionHandler persists the session's content back to the
// project record.
func saveSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var snap editor.Snapshot
		var duration float64
		cfg.Sessions.With(id, func(sess *editor.Session) {
			snap = sess.Content()
			duration = sess.State().Duration
		})

		if err := cfg.Repository.UpdateTimeline(r.Context(), id, snap.Tracks, snap.Subtitles, duration); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sessions.Close(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Preview.ServeMedia(w, r, name); err != nil {
			cfg.Logger.Error("preview error", "error", err, "name", name)
		}
	}
}

// exportMediaHandler serves finished export files when exports are
// stored locally instead of uploaded.
func exportMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.ExportsMedia == nil {
			WriteError(w, http.StatusNotFound, "local exports not enabled", "NOT_FOUND")
			return
		}
		name := chi.URLParam(r, "name")
		if err := cfg.ExportsMedia.ServeMedia(w, r, name); err != nil {
			cfg.Logger.Error("export media error", "error", err, "name", name)
		}
	}
}

func sessionResponse(sess *editor.Session) SessionResponse {
	return SessionResponse{
		State:   sess.State(),
		CanUndo: sess.CanUndo(),
		CanRedo: sess.CanRedo(),
	}
}

func newProject(title string, now time.Time) *project.Project {
	return &project.Project{
		ID:        uuid.NewString(),
		Title:     title,
		Tracks:    defaultTracks(),
		Subtitles: []timeline.Subtitle{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// defaultTracks is the starting layout for a new project: one video
// track and one narration audio track.
func defaultTracks() []timeline.Track {
	return []timeline.Track{
		{ID: uuid.NewString(), Name: "Video 1", Kind: timeline.KindVideo, Visible: true, Volume: 1, Clips: []timeline.Clip{}},
		{ID: uuid.NewString(), Name: "Narration", Kind: timeline.KindAudio, Visible: true, Volume: 1, Clips: []timeline.Clip{}},
	}
}
