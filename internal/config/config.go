package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

// Config holds everything backoffice reads at startup.
type Config struct {
	APIBaseURL         string
	RequestTimeout     time.Duration
	RetryDelay         time.Duration
	PollInterval       time.Duration
	Categories         []string
	MaxUploadDimension int
	LogFile            string
	LogLevel           string
	LogFormat          string
	SessionPath        string
	Theme              string
}

const (
	defaultConfigPath         = "~/.config/backoffice/config.toml"
	defaultAPIBaseURL         = "http://127.0.0.1:5000/api"
	defaultRequestTimeout     = 30 * time.Second
	defaultRetryDelay         = time.Second
	defaultPollInterval       = 2 * time.Second
	defaultMaxUploadDimension = 2000
	defaultLogFile            = "~/.local/state/backoffice/backoffice.log"
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultSessionPath        = "~/.config/backoffice/session.toml"
	defaultEnvFile            = ".env"
	defaultTheme              = "Dracula"

	envPrefix = "BACKOFFICE_"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:         defaultAPIBaseURL,
		RequestTimeout:     defaultRequestTimeout,
		RetryDelay:         defaultRetryDelay,
		PollInterval:       defaultPollInterval,
		Categories:         []string{"Premium", "Luxe"},
		MaxUploadDimension: defaultMaxUploadDimension,
		LogFile:            mustExpand(defaultLogFile),
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		SessionPath:        mustExpand(defaultSessionPath),
		Theme:              defaultTheme,
	}
}

// Load reads the TOML file at path (or the default location), then applies
// .env and BACKOFFICE_* environment overrides. A missing file means
// defaults.
func Load(path string) (Config, error) {
	return load(path, defaultEnvFile)
}

type rawConfig struct {
	APIBaseURL         string   `toml:"api_base_url"`
	RequestTimeout     string   `toml:"request_timeout"`
	RetryDelay         string   `toml:"retry_delay"`
	PollInterval       string   `toml:"poll_interval"`
	Categories         []string `toml:"categories"`
	MaxUploadDimension int      `toml:"max_upload_dimension"`
	LogFile            string   `toml:"log_file"`
	LogLevel           string   `toml:"log_level"`
	LogFormat          string   `toml:"log_format"`
	SessionPath        string   `toml:"session_path"`
	Theme              string   `toml:"theme"`
}

func load(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}
	return resolve(raw)
}

func applyEnv(raw *rawConfig) error {
	strs := map[string]*string{
		"API_BASE_URL":    &raw.APIBaseURL,
		"REQUEST_TIMEOUT": &raw.RequestTimeout,
		"RETRY_DELAY":     &raw.RetryDelay,
		"POLL_INTERVAL":   &raw.PollInterval,
		"LOG_FILE":        &raw.LogFile,
		"LOG_LEVEL":       &raw.LogLevel,
		"LOG_FORMAT":      &raw.LogFormat,
		"SESSION_PATH":    &raw.SessionPath,
		"THEME":           &raw.Theme,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"MAX_UPLOAD_DIMENSION": &raw.MaxUploadDimension,
	}
	for name, dst := range ints {
		v := strings.TrimSpace(os.Getenv(envPrefix + name))
		if v == "" {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	if v, ok := os.LookupEnv(envPrefix + "CATEGORIES"); ok {
		raw.Categories = strings.Split(v, ",")
	}
	return nil
}

func resolve(raw rawConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"retry_delay", raw.RetryDelay, &cfg.RetryDelay},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := cast.ToDurationE(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		if parsed < 0 {
			return Config{}, fmt.Errorf("parse %s: must not be negative", d.name)
		}
		if parsed > 0 {
			*d.dst = parsed
		}
	}
	if raw.MaxUploadDimension > 0 {
		cfg.MaxUploadDimension = raw.MaxUploadDimension
	}
	var categories []string
	for _, c := range raw.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	if len(categories) > 0 {
		cfg.Categories = categories
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return Config{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		switch v {
		case "json", "console":
			cfg.LogFormat = v
		default:
			return Config{}, fmt.Errorf("parse log_format: unknown format %q", raw.LogFormat)
		}
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Theme); v != "" {
		cfg.Theme = v
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
