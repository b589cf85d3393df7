// Package config provides configuration for the shorts agent.
// Configuration is loaded from environment variables with sensible
// defaults; a .env file in the working directory is read first when
// present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultLogLevel = "info"
	DefaultDataDir  = ".viralshorts"

	// Environment variable names
	EnvPort       = "SHORTS_PORT"
	EnvLogLevel   = "SHORTS_LOG_LEVEL"
	EnvDataDir    = "SHORTS_DATA_DIR"
	EnvFFmpegPath = "SHORTS_FFMPEG_PATH"
	EnvUploadURL  = "SHORTS_UPLOAD_URL"
	EnvUploadKey  = "SHORTS_UPLOAD_KEY"
	EnvHeadless      = "SHORTS_HEADLESS"
	EnvRequireFFmpeg = "SHORTS_REQUIRE_FFMPEG"

	// Database filename
	DBFilename = "viralshorts.db"

	// Export defaults
	DefaultDownloadParallelism = 4
	DefaultScratchMaxAge       = 6 * time.Hour
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	ScratchDir() string
	ExportsDir() string
	FFmpegPath() string
	UploadURL() string
	UploadKey() string
	DownloadParallelism() int
	ScratchMaxAge() time.Duration
	Headless() bool
	RequireFFmpeg() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	ffmpegPath string
	uploadURL     string
	uploadKey     string
	headless      bool
	requireFFmpeg bool
}

// New creates a new EnvConfig with defaults and environment variable
// overrides. A .env file is loaded when one exists; real environment
// variables win over it.
func New() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.uploadURL = os.Getenv(EnvUploadURL)
	cfg.uploadKey = os.Getenv(EnvUploadKey)
	cfg.headless = boolEnv(EnvHeadless)
	cfg.requireFFmpeg = boolEnv(EnvRequireFFmpeg)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory preview media is served from
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// ScratchDir returns the working directory for in-flight exports
func (c *EnvConfig) ScratchDir() string {
	return filepath.Join(c.dataDir, "scratch")
}

// ExportsDir returns the directory finished exports land in when no
// upload endpoint is configured
func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// FFmpegPath returns the configured ffmpeg binary path, empty for a
// PATH lookup
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// UploadURL returns the base URL finished exports are uploaded to,
// empty for local-only output
func (c *EnvConfig) UploadURL() string {
	return c.uploadURL
}

// UploadKey returns the bearer token for the upload endpoint
func (c *EnvConfig) UploadKey() string {
	return c.uploadKey
}

func (c *EnvConfig) DownloadParallelism() int {
	return DefaultDownloadParallelism
}

func (c *EnvConfig) ScratchMaxAge() time.Duration {
	return DefaultScratchMaxAge
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// RequireFFmpeg reports whether a missing ffmpeg binary should abort
// startup instead of degrading to the mock transcoder
func (c *EnvConfig) RequireFFmpeg() bool {
	return c.requireFFmpeg
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true"
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
