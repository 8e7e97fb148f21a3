// Package config builds the typed runtime configuration from environment
// variables. Validation happens once at startup; every misconfiguration is
// reported as a config-category FramecastError so the CLI can exit with a
// single human-readable message.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

// Canvas dimensions for the rendered artwork. The Frame displays art at
// exactly this resolution; the renderer never paginates or scales.
const (
	ImageWidth  = 1920
	ImageHeight = 1080
)

// Default network ports for the TV's local API.
const (
	DefaultArtPort    = 8001
	DefaultRemotePort = 8002
)

// ContentSource says which kind of input the renderer receives.
type ContentSource string

const (
	SourceMarkdown ContentSource = "markdown"
	SourceGoals    ContentSource = "goals"
)

// Config is the validated runtime configuration.
type Config struct {
	TVHost     string // FRAME_TV_IP
	TVMAC      string // FRAME_TV_MAC, optional; enables Wake-on-LAN
	ArtPort    int    // FRAME_TV_PORT
	RemotePort int    // FRAME_REMOTE_PORT

	Source      ContentSource
	ContentFile string // markdown or goals file, depending on Source
	Theme       string // FRAME_THEME

	StateDir string // FRAME_STATE_DIR, default ~/.frame-automation
	ThemeDir string // FRAME_THEME_DIR, user theme overrides

	RefreshInterval time.Duration // FRAME_REFRESH_INTERVAL, daemon only
	MetricsAddr     string        // FRAME_METRICS_ADDR, daemon only

	LogLevel  LogLevel
	LogFormat LogFormat
}

// LoadEnvFile loads KEY=VALUE pairs from the given .env file without
// overriding variables already present in the process environment.
// A missing file is not an error; the system environment is used as-is.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads and validates configuration from the process environment.
// needContent controls whether a content source is required (push/daemon)
// or optional (off, artmode, history, themes).
func Load(needContent bool) (*Config, error) {
	cfg := &Config{
		TVHost:      os.Getenv("FRAME_TV_IP"),
		TVMAC:       os.Getenv("FRAME_TV_MAC"),
		Theme:       getEnv("FRAME_THEME", "default"),
		StateDir:    os.Getenv("FRAME_STATE_DIR"),
		ThemeDir:    os.Getenv("FRAME_THEME_DIR"),
		MetricsAddr: getEnv("FRAME_METRICS_ADDR", ":9835"),
		LogLevel:    NormalizeLogLevel(os.Getenv("LOG_LEVEL")),
		LogFormat:   NormalizeLogFormat(os.Getenv("LOG_FORMAT")),
	}

	if cfg.TVHost == "" {
		return nil, errors.ConfigError("FRAME_TV_IP environment variable not set")
	}

	var err error
	if cfg.ArtPort, err = getEnvPort("FRAME_TV_PORT", DefaultArtPort); err != nil {
		return nil, err
	}
	if cfg.RemotePort, err = getEnvPort("FRAME_REMOTE_PORT", DefaultRemotePort); err != nil {
		return nil, err
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "cannot determine home directory")
		}
		cfg.StateDir = filepath.Join(home, ".frame-automation")
	}
	if cfg.ThemeDir == "" {
		cfg.ThemeDir = filepath.Join(cfg.StateDir, "themes")
	}

	if raw := os.Getenv("FRAME_REFRESH_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, errors.ConfigError(fmt.Sprintf("FRAME_REFRESH_INTERVAL is not a valid duration: %q", raw))
		}
		cfg.RefreshInterval = d
	}

	if err := cfg.resolveContent(needContent); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveContent applies the FRAME_CONTENT_FILE / FRAME_GOALS_FILE rules:
// the two variables are mutually exclusive, and whichever is set must exist.
func (c *Config) resolveContent(required bool) error {
	contentFile := os.Getenv("FRAME_CONTENT_FILE")
	goalsFile := os.Getenv("FRAME_GOALS_FILE")

	switch {
	case contentFile != "" && goalsFile != "":
		return errors.ConfigError("FRAME_CONTENT_FILE and FRAME_GOALS_FILE are mutually exclusive; set only one")
	case contentFile != "":
		c.Source = SourceMarkdown
		c.ContentFile = contentFile
	case goalsFile != "":
		c.Source = SourceGoals
		c.ContentFile = goalsFile
	case required:
		return errors.ConfigError("no content source set; set FRAME_CONTENT_FILE or FRAME_GOALS_FILE")
	default:
		return nil
	}

	if _, err := os.Stat(c.ContentFile); err != nil {
		return errors.ConfigError(fmt.Sprintf("content file not found: %s", c.ContentFile))
	}
	return nil
}

// StatePath returns the path of the last-content-id state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "last_content_id")
}

// HistoryPath returns the path of the upload history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func getEnvPort(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	var port int
	if _, err := fmt.Sscanf(raw, "%d", &port); err != nil || port < 1 || port > 65535 {
		return 0, errors.ConfigError(fmt.Sprintf("%s is not a valid port: %q", key, raw))
	}
	return port, nil
}
