package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

type Tray struct {
	logger *slog.Logger

	statusItem   *systray.MenuItem
	exportsItem  *systray.MenuItem
	projectsItem *systray.MenuItem

	mu sync.Mutex

	onOpenEditor func() error
	onQuit       func()
}

type TrayConfig struct {
	Logger       *slog.Logger
	OnOpenEditor func() error
	OnQuit       func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		logger:       cfg.Logger,
		onOpenEditor: cfg.OnOpenEditor,
		onQuit:       cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("ViralShorts")
	systray.SetTooltip("ViralShorts Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.projectsItem = systray.AddMenuItem("Projects: 0", "Saved projects")
	t.projectsItem.Disable()

	t.exportsItem = systray.AddMenuItem("Exports running: 0", "Exports in progress")
	t.exportsItem.Disable()

	systray.AddSeparator()

	openItem := systray.AddMenuItem("Open Editor...", "Open the editor in a browser")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ViralShorts Agent")

	go func() {
		for {
			select {
			case <-openItem.ClickedCh:
				t.handleOpenEditor()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) handleOpenEditor() {
	if t.onOpenEditor != nil {
		if err := t.onOpenEditor(); err != nil {
			t.logger.Error("failed to open editor", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateProjectsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectsItem.SetTitle(fmt.Sprintf("Projects: %d", count))
}

// UpdateExportsRunning reflects the active pipeline count and flips the
// status line between Idle and Exporting.
func (t *Tray) UpdateExportsRunning(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exportsItem.SetTitle(fmt.Sprintf("Exports running: %d", count))
	if count > 0 {
		t.statusItem.SetTitle("Status: Exporting")
	} else {
		t.statusItem.SetTitle("Status: Idle")
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
