package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/lumen/internal/gallery"
	"github.com/starford/lumen/internal/github"
	"github.com/starford/lumen/internal/kv"
	"github.com/starford/lumen/internal/registry"
	"github.com/starford/lumen/internal/thumb"
	"github.com/starford/lumen/internal/treecache"
)

// App is the assembled gallery core, ready for a rendering layer (or the
// bundled CLI) to consume.
type App struct {
	Gallery *gallery.Service
	Logger  *slog.Logger

	store kv.Store
}

// NewApp wires the core from configuration: logger, key-value store,
// remote client, snapshot cache, source registry and gallery service.
func NewApp(cfg *Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	settings := &appSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	logger := settings.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	store := settings.store
	if store == nil {
		if cfg.Store.Path == "" {
			store = kv.NewMemory()
		} else {
			db, err := kv.Open(cfg.Store.Path)
			if err != nil {
				return nil, fmt.Errorf("init store: %w", err)
			}
			store = db
		}
	}

	lister := settings.lister
	if lister == nil {
		lister = github.NewClient(cfg.GitHub.BaseURL, github.TokenHeaders(cfg.GitHub.Token), logger)
	}

	cache := treecache.New(lister, logger)

	reg, err := registry.New(store, cfg.BuiltInSources(), logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init registry: %w", err)
	}

	thumbs := thumb.Config{
		BaseURL: cfg.Thumbnail.BaseURL,
		Width:   cfg.Thumbnail.Width,
		Quality: cfg.Thumbnail.Quality,
	}

	logger.Info("gallery core ready",
		slog.Int("built_in_sources", len(cfg.Sources)),
		slog.String("active_source", reg.Active().ID))

	return &App{
		Gallery: gallery.NewService(reg, cache, thumbs, logger),
		Logger:  logger,
		store:   store,
	}, nil
}

// Close releases the underlying store.
func (a *App) Close() error {
	return a.store.Close()
}
