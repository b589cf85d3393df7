package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rkanjani/ViralShorts/internal/export"
	"github.com/rkanjani/ViralShorts/internal/exports"
)

func submitExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req SubmitExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AudioMix < 0 || req.AudioMix > 1 {
			WriteError(w, http.StatusBadRequest, "audio_mix must be between 0 and 1", "BAD_REQUEST")
			return
		}

		opts := export.Options{
			SubtitlesEnabled: req.SubtitlesEnabled,
			SubtitleStyle:    req.SubtitleStyle,
			AudioMix:         req.AudioMix,
		}
		if len(req.TrimOverrides) > 0 {
			opts.TrimOverrides = make(map[string]export.TrimOverride, len(req.TrimOverrides))
			for lineID, o := range req.TrimOverrides {
				opts.TrimOverrides[lineID] = export.TrimOverride{TrimStart: o.TrimStart, TrimEnd: o.TrimEnd}
			}
		}
		if len(req.Narration) > 0 {
			narration := req.Narration
			opts.NarrationURL = func(lineID string) string { return narration[lineID] }
		}

		rec, err := cfg.Exports.Submit(r.Context(), projectID, opts)
		switch {
		case errors.Is(err, exports.ErrProjectNotFound):
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		case errors.Is(err, export.ErrNoExportableContent):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NO_EXPORTABLE_CONTENT")
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportToResponse(rec))
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := cfg.Exports.Get(r.Context(), id)
		if errors.Is(err, exports.ErrExportNotFound) {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ExportToResponse(rec))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		records, err := cfg.Exports.List(r.Context(), projectID, 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(records))}
		for i, rec := range records {
			resp.Exports[i] = ExportToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Exports.Cancel(id); err != nil {
			WriteError(w, http.StatusConflict, "export is not running", "NOT_RUNNING")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// exportEventsHandler streams progress events for one export as
// server-sent events. The stream ends when the export reaches a
// terminal stage or the client disconnects.
func exportEventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
			return
		}

		events, cancel := cfg.Exports.Subscribe(id)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// Replay current state first so a late subscriber is never
		// stuck waiting for an export that already finished.
		if rec, err := cfg.Exports.Get(r.Context(), id); err == nil {
			writeSSE(w, ExportToResponse(rec))
			flusher.Flush()
			if isTerminalStage(rec.Stage) {
				return
			}
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-events:
				if !open {
					return
				}
				writeSSE(w, ev)
				flusher.Flush()
				if isTerminalStage(ev.Stage) {
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func isTerminalStage(stage string) bool {
	return stage == "completed" || stage == "failed"
}
