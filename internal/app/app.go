package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/logging"
	"github.com/five82/waypoint/internal/prefs"
	"github.com/five82/waypoint/internal/ui"
)

// Options configure the waypoint editor.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/waypoint/prefs.toml
	APIURL     string // overrides api_url from the config file
	PageSize   int    // zero uses the config value
}

// Run boots the editor TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	logs, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logs.Close()
	logger := logs.Logger.With().Str("component", "app").Logger()

	client, err := features.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init record client: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	logger.Info().
		Str("api_url", client.BaseURL()).
		Int("page_size", cfg.PageSize).
		Dur("timeout", cfg.RequestTimeout).
		Msg("editor starting")
	start := time.Now()

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		APIURL:    client.BaseURL(),
		PageSize:  cfg.PageSize,
		Logger:    &logs.Logger,
		LogPath:   cfg.LogFile,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
	if err != nil {
		logger.Error().Err(err).Msg("editor stopped")
		return err
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("editor stopped")
	return nil
}

// resolveConfig loads the config file and applies command line overrides.
func resolveConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if url := strings.TrimSpace(opts.APIURL); url != "" {
		cfg.APIURL = url
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}
	return cfg, nil
}
