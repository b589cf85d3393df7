package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/rkanjani/ViralShorts/internal/api"
	"github.com/rkanjani/ViralShorts/internal/config"
	"github.com/rkanjani/ViralShorts/internal/db"
	"github.com/rkanjani/ViralShorts/internal/editor"
	"github.com/rkanjani/ViralShorts/internal/events"
	"github.com/rkanjani/ViralShorts/internal/exports"
	"github.com/rkanjani/ViralShorts/internal/logging"
	"github.com/rkanjani/ViralShorts/internal/playback"
	"github.com/rkanjani/ViralShorts/internal/project"
	"github.com/rkanjani/ViralShorts/internal/storage"
	"github.com/rkanjani/ViralShorts/internal/transcode"
	"github.com/rkanjani/ViralShorts/internal/ui"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.MediaDir(), cfg.ScratchDir(), cfg.ExportsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting shorts agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device id: %w", err)
	}
	logger.Info("device identity loaded", "device_id", deviceID)

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  VIRALSHORTS AGENT v0.1.0                 ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	// A missing ffmpeg degrades to the mock pass-through transcoder so
	// the editor stays usable, unless strict mode forbids it.
	var transcoder transcode.Transcoder
	ffmpeg, err := transcode.NewFFmpeg(cfg.FFmpegPath(), logging.WithComponent(logger, "transcode"))
	if err != nil {
		if cfg.RequireFFmpeg() {
			return fmt.Errorf("transcoder required but unavailable: %w", err)
		}
		transcoder = transcode.NewStub(logging.WithComponent(logger, "transcode"))
	} else {
		transcoder = ffmpeg
	}

	var store storage.Store
	var exportsMedia playback.PreviewService
	if cfg.UploadURL() != "" {
		store = storage.NewHTTPStore(cfg.UploadURL(), cfg.UploadKey(), logging.WithComponent(logger, "storage"))
		logger.Info("export upload enabled", "base_url", cfg.UploadURL())
	} else {
		baseURL := fmt.Sprintf("http://127.0.0.1:%d/media/exports", cfg.Port())
		store = storage.NewLocalStore(cfg.ExportsDir(), baseURL, logging.WithComponent(logger, "storage"))
		exportsMedia = playback.NewPreviewServer(cfg.ExportsDir(), logging.WithComponent(logger, "playback"))
		logger.Info("exports will be stored locally", "dir", logging.SanitizePath(cfg.ExportsDir()))
	}

	pipeline := transcode.NewPipeline(transcode.Config{
		Transcoder:          transcoder,
		Store:               store,
		ScratchDir:          cfg.ScratchDir(),
		DownloadParallelism: cfg.DownloadParallelism(),
		Logger:              logging.WithComponent(logger, "pipeline"),
	})

	sessions := editor.NewManager()
	bus := events.NewBus()
	exportSvc := exports.NewService(repo, sessions, pipeline, bus, logging.WithComponent(logger, "exports"))

	// Hourly sweep for scratch dirs orphaned by crashes.
	janitor := cron.New()
	if _, err := janitor.AddFunc("@hourly", func() {
		transcode.SweepScratch(cfg.ScratchDir(), cfg.ScratchMaxAge(), logger)
	}); err != nil {
		return fmt.Errorf("failed to schedule scratch janitor: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Repository:     repo,
		Sessions:       sessions,
		Exports:        exportSvc,
		Preview:        playback.NewPreviewServer(cfg.MediaDir(), logging.WithComponent(logger, "playback")),
		ExportsMedia:   exportsMedia,
		TranscoderMock: transcoder.IsMock(),
		Logger:         logging.WithComponent(logger, "api"),
		StartTime:      startTime,
		Version:        Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Logger: logger,
			OnOpenEditor: func() error {
				return openBrowser(fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
		go pollTray(quitCh, tray, exportSvc, repo, logger)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	exportSvc.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// pollTray keeps the tray counters in sync with the service state.
func pollTray(quitCh <-chan struct{}, tray *ui.Tray, svc *exports.Service, repo project.Repository, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-quitCh:
			return
		case <-ticker.C:
			tray.UpdateExportsRunning(svc.ActiveCount())
			if projects, err := repo.ListProjects(context.Background()); err == nil {
				tray.UpdateProjectsCount(len(projects))
			} else {
				logger.Debug("tray project count refresh failed", "error", err)
			}
		}
	}
}

func openBrowser(url string) error {
	switch {
	case commandExists("open"): // macOS
		return exec.Command("open", url).Start()
	case commandExists("xdg-open"): // Linux
		return exec.Command("xdg-open", url).Start()
	default:
		return fmt.Errorf("no browser opener available")
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}

// ensureDeviceID mints a stable identifier for this installation on
// first launch.
func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	id := uuid.NewString()
	if err := repo.SetConfig(ctx, "device_id", id); err != nil {
		return "", err
	}

	return id, nil
}
