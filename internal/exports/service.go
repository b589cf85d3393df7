// Package exports owns the export lifecycle: it turns a project's
// current timeline into a pipeline request, tracks the run in the
// database, and relays progress events to subscribers.
package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/events"
	"github.com/rkanjani/ViralShorts/internal/export"
	"github.com/rkanjani/ViralShorts/internal/project"
	"github.com/rkanjani/ViralShorts/internal/transcode"
)

var (
	ErrProjectNotFound  = errors.New("exports: project not found")
	ErrExportNotFound   = errors.New("exports: export not found")
	ErrExportNotRunning = errors.New("exports: export is not running")
)

// Runner abstracts the transcode pipeline for testing.
type Runner interface {
	Run(ctx context.Context, exportID string, req *export.Request, emit func(events.Event)) (*transcode.Result, error)
}

type Service struct {
	repo     project.Repository
	sessions *editor.Manager
	runner   Runner
	bus      *events.Bus
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(repo project.Repository, sessions *editor.Manager, runner Runner, bus *events.Bus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		runner:   runner,
		bus:      bus,
		logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Submit builds a pipeline request from the project's live session
// content (falling back to the persisted timeline when no session is
// open), records the export and starts the run in the background.
func (s *Service) Submit(ctx context.Context, projectID string, opts export.Options) (*project.ExportRecord, error) {
	proj, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, ErrProjectNotFound
	}

	snap := editor.Snapshot{Tracks: proj.Tracks, Subtitles: proj.Subtitles}
	s.sessions.With(projectID, func(sess *editor.Session) {
		if content := sess.Content(); len(content.Tracks) > 0 {
			snap = content
		}
	})

	req, err := export.Build(snap, opts)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &project.ExportRecord{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Stage:     transcode.StageDownloading,
		Percent:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateExport(ctx, rec); err != nil {
		return nil, fmt.Errorf("record export: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[rec.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, rec.ID, projectID, req)

	s.logger.Info("export submitted", "export_id", rec.ID, "project_id", projectID, "clips", len(req.Clips))
	return rec, nil
}

func (s *Service) run(ctx context.Context, exportID, projectID string, req *export.Request) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.cancels[exportID]; ok {
			delete(s.cancels, exportID)
			cancel()
		}
		s.mu.Unlock()
		s.bus.CloseTopic(exportID)
	}()

	emit := func(ev events.Event) {
		s.bus.Publish(exportID, ev)
		s.persist(exportID, ev)
	}

	res, err := s.runner.Run(ctx, exportID, req, emit)
	if err != nil {
		s.logger.Warn("export failed", "export_id", exportID, "error", err)
		return
	}

	if err := s.repo.UpdateLastExport(context.Background(), projectID, res.URL, res.IsMock, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update project last export", "project_id", projectID, "error", err)
	}
}

// persist mirrors each event into the exports table. Terminal events
// carry the result or error; everything else is progress.
func (s *Service) persist(exportID string, ev events.Event) {
	ctx := context.Background()
	var err error
	switch ev.Stage {
	case transcode.StageCompleted:
		err = s.repo.UpdateExportResult(ctx, exportID, ev.Stage, ev.URL, ev.IsMock, "")
	case transcode.StageFailed:
		err = s.repo.UpdateExportResult(ctx, exportID, ev.Stage, "", false, ev.Error)
	default:
		err = s.repo.UpdateExportProgress(ctx, exportID, ev.Stage, ev.Percent)
	}
	if err != nil {
		s.logger.Warn("failed to persist export progress", "export_id", exportID, "stage", ev.Stage, "error", err)
	}
}

// Get returns the current state of an export.
func (s *Service) Get(ctx context.Context, exportID string) (*project.ExportRecord, error) {
	rec, err := s.repo.GetExport(ctx, exportID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrExportNotFound
	}
	return rec, nil
}

// List returns a project's export history, newest first.
func (s *Service) List(ctx context.Context, projectID string, limit int) ([]*project.ExportRecord, error) {
	return s.repo.ListExports(ctx, projectID, limit)
}

// Cancel aborts a running export. The pipeline observes the context
// cancellation between stages and fails the run.
func (s *Service) Cancel(exportID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[exportID]
	s.mu.Unlock()
	if !ok {
		return ErrExportNotRunning
	}
	cancel()
	return nil
}

// Subscribe streams progress events for one export.
func (s *Service) Subscribe(exportID string) (<-chan events.Event, func()) {
	return s.bus.Subscribe(exportID)
}

// ActiveCount reports how many exports are currently running.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// Shutdown cancels every running export and waits for their goroutines
// to finish persisting terminal state.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
