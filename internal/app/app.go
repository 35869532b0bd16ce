package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gigon/gigon/internal/config"
	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
	"github.com/gigon/gigon/internal/logging"
	"github.com/gigon/gigon/internal/prefs"
	"github.com/gigon/gigon/internal/state"
	"github.com/gigon/gigon/internal/ui"
)

// Options configure a gigon session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/gigon/prefs.toml
	Viewer     string // overrides the configured username
	LogLevel   string // overrides the configured log level
	Profile    string // profile opened when the TUI starts
}

// Env holds the wired dependencies shared by the TUI and one-shot commands.
type Env struct {
	Config  config.Config
	Prefs   prefs.Prefs
	Logger  *logging.Logger
	Client  *gigon.Client
	Manager *connection.Manager

	rootLog *logging.Logger
}

// Viewer returns the identity requests are made as.
func (e *Env) Viewer() string {
	return e.Config.Username
}

// Close releases the log file.
func (e *Env) Close() error {
	return e.rootLog.Close()
}

// Bootstrap loads configuration and wires the client, manager and logger.
func Bootstrap(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.Viewer); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}

	root, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		// The TUI owns the terminal, so logging failures only cost diagnostics.
		fmt.Fprintf(os.Stderr, "gigon: logging disabled: %v\n", err)
		root = nil
	}
	logger := root.With("viewer", cfg.Username)

	client, err := gigon.NewClient(cfg.ClientOptions())
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("init gigon client: %w", err)
	}

	logger.Debug("session started", "api_base", cfg.APIBase, "timeout", cfg.Timeout.String())

	return &Env{
		Config:  cfg,
		Prefs:   userPrefs,
		Logger:  logger,
		Client:  client,
		Manager: connection.NewManager(client, logger),
		rootLog: root,
	}, nil
}

// Run boots the gigon TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	return ui.Run(ui.Options{
		Context:   ctx,
		Manager:   env.Manager,
		Store:     &state.Store{},
		Logger:    env.Logger,
		Viewer:    env.Viewer(),
		Profile:   opts.Profile,
		Prefs:     env.Prefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   env.Config.LogPath(),
	})
}
