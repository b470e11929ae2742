// Package config loads the shared config.yaml used by every tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vodkeeper/internal/execx"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "config.yaml"

// Environment variables that override file values.
const (
	EnvAPIKey        = "VODKEEPER_API_KEY"
	EnvServerURL     = "VODKEEPER_SERVER_URL"
	EnvTranscriptDir = "VODKEEPER_TRANSCRIPT_DIR"
	EnvLogLevel      = "VODKEEPER_LOG_LEVEL"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings.
type Config struct {
	APIKey        string `yaml:"api_key"`
	ServerURL     string `yaml:"server_url"`
	TranscriptDir string `yaml:"transcript_dir"`
	ArchiveFile   string `yaml:"archive_file"`
	ReportFile    string `yaml:"report_file"`
	// LedgerPath is the sqlite run ledger; empty disables it.
	LedgerPath string `yaml:"ledger_path"`

	Logging  LoggingConfig  `yaml:"logging"`
	Tools    ToolsConfig    `yaml:"tools"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	Download DownloadConfig `yaml:"download"`
	Organize OrganizeConfig `yaml:"organize"`
	Wordfix  WordfixConfig  `yaml:"wordfix"`

	path   string
	loaded bool
}

// LoggingConfig selects the log level and encoding (console or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	YtDlp   string `yaml:"ytdlp"`
	Whisper string `yaml:"whisper"`
}

type WhisperConfig struct {
	Language    string `yaml:"language"`
	ComputeType string `yaml:"compute_type"`
	Model       string `yaml:"model"`
	ExtraArgs   string `yaml:"extra_args"`
}

// DownloadConfig configures yt-dlp runs. An empty Sources list selects
// the built-in table.
type DownloadConfig struct {
	CookiesBrowser string         `yaml:"cookies_browser"`
	SleepRequests  int            `yaml:"sleep_requests"`
	SleepInterval  int            `yaml:"sleep_interval"`
	Sources        []execx.Source `yaml:"sources"`
}

type OrganizeConfig struct {
	FloorYear   int `yaml:"floor_year"`
	CeilingYear int `yaml:"ceiling_year"`
}

type WordfixConfig struct {
	RulesFile string `yaml:"rules_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		TranscriptDir: "Transcript",
		ArchiveFile:   "yt-dlp-archive.txt",
		ReportFile:    "missing.txt",
		LedgerPath:    filepath.Join("data", "vodkeeper.db"),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tools: ToolsConfig{
			YtDlp:   "yt-dlp",
			Whisper: "faster-whisper-xxl",
		},
		Whisper: WhisperConfig{
			Language:    "English",
			ComputeType: "float32",
			Model:       "distil-large-v3.5",
		},
		Download: DownloadConfig{
			CookiesBrowser: "firefox",
			SleepRequests:  1,
			SleepInterval:  15,
		},
		Organize: OrganizeConfig{
			FloorYear:   2024,
			CeilingYear: 2025,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; Loaded reports whether one was read.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.loaded = true
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// replacing variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Loaded reports whether a config file was found and parsed.
func (c *Config) Loaded() bool { return c.loaded }

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvTranscriptDir); v != "" {
		c.TranscriptDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration. requireServer is set by the tools
// that talk to the archive server.
func (c *Config) Validate(requireServer bool) error {
	name := c.path
	if name == "" {
		name = DefaultPath
	}

	if requireServer {
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: 'api_key' not found in '%s' (add the line api_key: YOUR_KEY or set %s)", ErrInvalid, name, EnvAPIKey)
		}
		if strings.TrimSpace(c.ServerURL) == "" {
			return fmt.Errorf("%w: 'server_url' not found in '%s' (add the line server_url: YOUR_SERVER or set %s)", ErrInvalid, name, EnvServerURL)
		}
		if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
			return fmt.Errorf("%w: server_url %q must start with http:// or https://", ErrInvalid, c.ServerURL)
		}
	}

	if c.TranscriptDir == "" {
		return fmt.Errorf("%w: transcript_dir must not be empty", ErrInvalid)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (valid: console, json)", ErrInvalid, c.Logging.Format)
	}
	if c.Organize.FloorYear > c.Organize.CeilingYear {
		return fmt.Errorf("%w: organize.floor_year %d is after ceiling_year %d", ErrInvalid, c.Organize.FloorYear, c.Organize.CeilingYear)
	}
	if c.Download.SleepRequests < 0 || c.Download.SleepInterval < 0 {
		return fmt.Errorf("%w: download sleep values must not be negative", ErrInvalid)
	}
	return nil
}
