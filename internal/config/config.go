package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/gigon/gigon/internal/gigon"
	"github.com/gigon/gigon/internal/logging"
)

// Config captures everything gigon needs to talk to the collaborator API.
type Config struct {
	APIBase  string
	Token    string
	Username string
	LogDir   string
	LogLevel string
	Timeout  time.Duration
}

const (
	defaultConfigPath = "~/.config/gigon/config.toml"
	defaultLogDir     = "~/.local/share/gigon/logs"
	defaultLogLevel   = "info"
	defaultTimeout    = 10 * time.Second

	EnvAPIBase  = "GIGON_API_BASE"
	EnvToken    = "GIGON_TOKEN"
	EnvUsername = "GIGON_USERNAME"
)

// ErrIncomplete is returned by Validate when a required field is missing.
var ErrIncomplete = errors.New("config incomplete")

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:  gigon.DefaultBaseURL,
		LogDir:   mustExpand(defaultLogDir),
		LogLevel: defaultLogLevel,
		Timeout:  defaultTimeout,
	}
}

// Load locates and parses the gigon config, falling back to defaults when
// missing. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase        string `toml:"api_base"`
		Token          string `toml:"token"`
		Username       string `toml:"username"`
		LogDir         string `toml:"log_dir"`
		LogLevel       string `toml:"log_level"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	cfg.Username = strings.TrimSpace(raw.Username)
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.TimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("parse config: timeout_seconds must not be negative")
	}
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		cfg.Username = v
	}
}

// Validate reports missing fields required before any network operation.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// ClientOptions maps the config onto API client options.
func (c Config) ClientOptions() gigon.Options {
	return gigon.Options{
		BaseURL: c.APIBase,
		Token:   c.Token,
		Timeout: c.Timeout,
	}
}

// LogPath returns the path to the gigon log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), logging.FileName)
	}
	return filepath.Join(c.LogDir, logging.FileName)
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
