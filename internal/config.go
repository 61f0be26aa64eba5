// Package internal provides configuration and application wiring for the
// Lumen gallery core.
package internal

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumen/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	GitHub    GitHubConfig      `yaml:"github"`
	Thumbnail ThumbnailConfig   `yaml:"thumbnail"`
	Store     StoreConfig       `yaml:"store"`
	Sources   []SourceConfig    `yaml:"sources"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Thumbnail.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources: at least one built-in source is required")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[c.Sources[i].ID]; dup {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, c.Sources[i].ID)
		}
		seen[c.Sources[i].ID] = struct{}{}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// GitHubConfig holds the remote API endpoint and credential. Token is
// typically set via env expansion in the config file ("${GITHUB_TOKEN}").
type GitHubConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ThumbnailConfig holds the image-proxy settings used to derive preview
// URLs. An empty base URL disables previews.
type ThumbnailConfig struct {
	BaseURL string `yaml:"base_url"`
	Width   int    `yaml:"width"`
	Quality int    `yaml:"quality"`
}

// Validate validates the thumbnail configuration.
func (c *ThumbnailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Min(0), validation.Max(4096)),
		validation.Field(&c.Quality, validation.Min(0), validation.Max(100)),
	)
}

// StoreConfig holds the key-value store location. An empty path selects an
// in-memory store (nothing survives the process).
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return nil
}

// SourceConfig defines one built-in source in the config file. Built-ins
// are immutable after load.
type SourceConfig struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Owner              string   `yaml:"owner"`
	Repo               string   `yaml:"repo"`
	Branch             string   `yaml:"branch"`
	ExcludedFolders    []string `yaml:"excluded_folders"`
	AcceptedExtensions []string `yaml:"accepted_extensions"`
}

// Validate validates one built-in source definition.
func (c *SourceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.AcceptedExtensions, validation.Required),
	); err != nil {
		return err
	}
	for _, ext := range c.AcceptedExtensions {
		if !strings.HasPrefix(ext, ".") || ext != strings.ToLower(ext) {
			return fmt.Errorf("accepted_extensions: %q must be lowercase and dot-prefixed", ext)
		}
	}
	return nil
}

// Source converts the definition to the immutable built-in Source record.
func (c *SourceConfig) Source() models.Source {
	return models.Source{
		ID:                 c.ID,
		DisplayName:        c.Name,
		Owner:              c.Owner,
		Repo:               c.Repo,
		Branch:             c.Branch,
		TreeRef:            c.Branch,
		ExcludedFolders:    c.ExcludedFolders,
		AcceptedExtensions: c.AcceptedExtensions,
		BuiltIn:            true,
	}
}

// BuiltInSources returns the configured built-in sources in order.
func (c *Config) BuiltInSources() []models.Source {
	out := make([]models.Source, len(c.Sources))
	for i := range c.Sources {
		out[i] = c.Sources[i].Source()
	}
	return out
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Thumbnail: ThumbnailConfig{
			BaseURL: "https://wsrv.nl",
			Width:   480,
			Quality: 75,
		},
		Store: StoreConfig{
			Path: "./lumen.db",
		},
		Sources: []SourceConfig{
			{
				ID:                 "walls",
				Name:               "Walls",
				Owner:              "dharmx",
				Repo:               "walls",
				Branch:             "main",
				ExcludedFolders:    []string{".github"},
				AcceptedExtensions: []string{".png", ".jpg", ".jpeg", ".webp", ".gif"},
			},
		},
	}
}
