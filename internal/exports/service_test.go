package exports

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/events"
	"github.com/rkanjani/ViralShorts/internal/export"
	"github.com/rkanjani/ViralShorts/internal/project"
	"github.com/rkanjani/ViralShorts/internal/timeline"
	"github.com/rkanjani/ViralShorts/internal/transcode"
)

// memRepo is an in-memory project.Repository sufficient for service
// tests; the SQLite implementation has its own tests.
type memRepo struct {
	mu       sync.Mutex
	projects map[string]*project.Project
	exports  map[string]*project.ExportRecord
	config   map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		projects: make(map[string]*project.Project),
		exports:  make(map[string]*project.ExportRecord),
		config:   make(map[string]string),
	}
}

func (m *memRepo) CreateProject(ctx context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *memRepo) GetProject(ctx context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id], nil
}

func (m *memRepo) ListProjects(ctx context.Context) ([]*project.Project, error) { return nil, nil }

func (m *memRepo) UpdateTimeline(ctx context.Context, id string, tracks []timeline.Track, subtitles []timeline.Subtitle, duration float64) error {
	return nil
}

func (m *memRepo) UpdateLastExport(ctx context.Context, id, url string, isMock bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.projects[id]; ok {
		p.LastExportURL = url
		p.LastExportIsMock = isMock
		p.LastExportAt = at
	}
	return nil
}

func (m *memRepo) DeleteProject(ctx context.Context, id string) error { return nil }

func (m *memRepo) CreateExport(ctx context.Context, e *project.ExportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.exports[e.ID] = &cp
	return nil
}

func (m *memRepo) GetExport(ctx context.Context, id string) (*project.ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.exports[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) ListExports(ctx context.Context, projectID string, limit int) ([]*project.ExportRecord, error) {
	return nil, nil
}

func (m *memRepo) UpdateExportProgress(ctx context.Context, id, stage string, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.exports[id]; ok {
		e.Stage = stage
		e.Percent = percent
	}
	return nil
}

func (m *memRepo) UpdateExportResult(ctx context.Context, id, stage, url string, isMock bool, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.exports[id]; ok {
		e.Stage = stage
		e.URL = url
		e.IsMock = isMock
		e.Error = errorMsg
	}
	return nil
}

func (m *memRepo) GetConfig(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config[key], nil
}

func (m *memRepo) SetConfig(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
	return nil
}

// fakeRunner emits a scripted event sequence and returns a fixed result.
type fakeRunner struct {
	events []events.Event
	result *transcode.Result
	err    error
	block  chan struct{} // when set, waits for close or ctx before finishing
}

func (r *fakeRunner) Run(ctx context.Context, exportID string, req *export.Request, emit func(events.Event)) (*transcode.Result, error) {
	for _, ev := range r.events {
		emit(ev)
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			emit(events.Event{Stage: transcode.StageFailed, Error: ctx.Err().Error()})
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		emit(events.Event{Stage: transcode.StageFailed, Error: r.err.Error()})
		return nil, r.err
	}
	emit(events.Event{Stage: transcode.StageCompleted, Percent: 100, URL: r.result.URL, IsMock: r.result.IsMock})
	return r.result, nil
}

func testProject(id string) *project.Project {
	return &project.Project{
		ID:    id,
		Title: "Short",
		Tracks: []timeline.Track{
			{ID: "v1", Kind: timeline.KindVideo, Visible: true, Volume: 1, Clips: []timeline.Clip{
				{ID: "c1", SourceID: "l1", SourceURL: "http://cdn/v1.mp4", StartTime: 0, Duration: 5, SourceDuration: 5, Kind: timeline.KindVideo},
			}},
		},
	}
}

func newTestService(repo *memRepo, runner Runner) *Service {
	return NewService(repo, editor.NewManager(), runner, events.NewBus(), slog.New(slog.DiscardHandler))
}

func waitForStage(t *testing.T, repo *memRepo, exportID, stage string) *project.ExportRecord {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rec, err := repo.GetExport(context.Background(), exportID)
		require.NoError(t, err)
		if rec != nil && rec.Stage == stage {
			return rec
		}
		select {
		case <-deadline:
			t.Fatalf("export %s never reached stage %s (last: %+v)", exportID, stage, rec)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = testProject("p1")

	runner := &fakeRunner{
		events: []events.Event{
			{Stage: transcode.StageDownloading, Percent: 0},
			{Stage: transcode.StageProcessing, Percent: 40},
			{Stage: transcode.StageUploading, Percent: 85},
		},
		result: &transcode.Result{URL: "http://media/out.mp4", IsMock: true},
	}
	svc := newTestService(repo, runner)

	rec, err := svc.Submit(context.Background(), "p1", export.Options{AudioMix: 0.5})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, transcode.StageDownloading, rec.Stage)

	final := waitForStage(t, repo, rec.ID, transcode.StageCompleted)
	assert.Equal(t, "http://media/out.mp4", final.URL)
	assert.True(t, final.IsMock)

	svc.Shutdown()
	assert.Equal(t, 0, svc.ActiveCount())

	proj, err := repo.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "http://media/out.mp4", proj.LastExportURL)
	assert.True(t, proj.LastExportIsMock)
}

func TestSubmitProjectNotFound(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeRunner{result: &transcode.Result{}})

	_, err := svc.Submit(context.Background(), "missing", export.Options{})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSubmitNoExportableContent(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = &project.Project{ID: "p1", Title: "Empty"}
	svc := newTestService(repo, &fakeRunner{result: &transcode.Result{}})

	_, err := svc.Submit(context.Background(), "p1", export.Options{})
	assert.ErrorIs(t, err, export.ErrNoExportableContent)
}

func TestRunnerFailurePersisted(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = testProject("p1")

	runner := &fakeRunner{
		events: []events.Event{{Stage: transcode.StageDownloading, Percent: 0}},
		err:    errors.New("download timed out"),
	}
	svc := newTestService(repo, runner)

	rec, err := svc.Submit(context.Background(), "p1", export.Options{})
	require.NoError(t, err)

	final := waitForStage(t, repo, rec.ID, transcode.StageFailed)
	assert.Equal(t, "download timed out", final.Error)

	proj, _ := repo.GetProject(context.Background(), "p1")
	assert.Empty(t, proj.LastExportURL)
}

func TestCancelRunningExport(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = testProject("p1")

	runner := &fakeRunner{
		events: []events.Event{{Stage: transcode.StageDownloading, Percent: 0}},
		result: &transcode.Result{URL: "unused"},
		block:  make(chan struct{}),
	}
	svc := newTestService(repo, runner)

	rec, err := svc.Submit(context.Background(), "p1", export.Options{})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(rec.ID))
	final := waitForStage(t, repo, rec.ID, transcode.StageFailed)
	assert.Contains(t, final.Error, "context canceled")

	assert.ErrorIs(t, svc.Cancel(rec.ID), ErrExportNotRunning)
	svc.Shutdown()
}

func TestCancelUnknownExport(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeRunner{result: &transcode.Result{}})
	assert.ErrorIs(t, svc.Cancel("nope"), ErrExportNotRunning)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = testProject("p1")

	runner := &fakeRunner{
		result: &transcode.Result{URL: "http://media/out.mp4"},
		block:  make(chan struct{}),
	}
	svc := newTestService(repo, runner)

	rec, err := svc.Submit(context.Background(), "p1", export.Options{})
	require.NoError(t, err)

	ch, cancel := svc.Subscribe(rec.ID)
	defer cancel()
	close(runner.block)

	select {
	case ev := <-ch:
		assert.Equal(t, transcode.StageCompleted, ev.Stage)
		assert.Equal(t, "http://media/out.mp4", ev.URL)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestSubmitUsesLiveSessionContent(t *testing.T) {
	repo := newMemRepo()
	repo.projects["p1"] = testProject("p1")

	var got *export.Request
	runner := runnerFunc(func(ctx context.Context, id string, req *export.Request, emit func(events.Event)) (*transcode.Result, error) {
		got = req
		emit(events.Event{Stage: transcode.StageCompleted, Percent: 100, URL: "u"})
		return &transcode.Result{URL: "u"}, nil
	})

	sessions := editor.NewManager()
	svc := NewService(repo, sessions, runner, events.NewBus(), slog.New(slog.DiscardHandler))

	// Open a session and diverge it from the persisted timeline.
	sessions.With("p1", func(sess *editor.Session) {
		sess.LoadProjectData([]timeline.Track{
			{ID: "v1", Kind: timeline.KindVideo, Visible: true, Volume: 1, Clips: []timeline.Clip{
				{ID: "c9", SourceID: "l9", SourceURL: "http://cdn/new.mp4", StartTime: 0, Duration: 2, SourceDuration: 2, Kind: timeline.KindVideo},
			}},
		}, nil)
	})

	_, err := svc.Submit(context.Background(), "p1", export.Options{})
	require.NoError(t, err)
	svc.Shutdown()

	require.NotNil(t, got)
	require.Len(t, got.Clips, 1)
	assert.Equal(t, "http://cdn/new.mp4", got.Clips[0].VideoURL)
}

type runnerFunc func(ctx context.Context, exportID string, req *export.Request, emit func(events.Event)) (*transcode.Result, error)

func (f runnerFunc) Run(ctx context.Context, exportID string, req *export.Request, emit func(events.Event)) (*transcode.Result, error) {
	return f(ctx, exportID, req, emit)
}
