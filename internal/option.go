package internal

import (
	"log/slog"

	"github.com/starford/lumen/internal/kv"
	"github.com/starford/lumen/internal/treecache"
)

// Option is a functional option for configuring the application.
type Option func(*appSettings)

type appSettings struct {
	logger *slog.Logger
	store  kv.Store
	lister treecache.RemoteLister
}

// WithLogger overrides the default JSON logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *appSettings) {
		s.logger = logger
	}
}

// WithStore injects a key-value store, bypassing the configured SQLite
// path. Used by tests.
func WithStore(store kv.Store) Option {
	return func(s *appSettings) {
		s.store = store
	}
}

// WithLister injects a remote listing implementation in place of the
// GitHub client. Used by tests.
func WithLister(lister treecache.RemoteLister) Option {
	return func(s *appSettings) {
		s.lister = lister
	}
}
