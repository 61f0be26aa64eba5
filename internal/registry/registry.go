// Package registry manages the configured gallery sources: immutable
// built-ins plus user-defined sources persisted through the key-value
// store.
package registry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumen/internal/apperr"
	"github.com/starford/lumen/internal/kv"
	"github.com/starford/lumen/internal/models"
)

// Storage keys.
const (
	keyCustomSources = "sources/custom"
	keyActiveSource  = "sources/active"
)

// Registry owns the Source records. Built-in sources are loaded once at
// construction and never change; custom sources are added and removed,
// never edited in place.
type Registry struct {
	store  kv.Store
	logger *slog.Logger

	mu       sync.Mutex
	builtIn  []models.Source
	custom   []models.Source
	activeID string
	onEvict  func(sourceID string)
}

// New creates a Registry over the given built-in sources, loading any
// persisted custom sources and active-source id from store. At least one
// built-in source is required: it is the fallback for every self-healing
// path.
func New(store kv.Store, builtIn []models.Source, logger *slog.Logger) (*Registry, error) {
	if len(builtIn) == 0 {
		return nil, fmt.Errorf("registry: at least one built-in source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{store: store, logger: logger, builtIn: builtIn}

	if raw, ok, err := store.Get(keyCustomSources); err != nil {
		return nil, fmt.Errorf("registry: load custom sources: %w", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &r.custom); err != nil {
			// A corrupt record must not take the registry down; start
			// from the built-ins and log what was lost.
			logger.Warn("discarding corrupt custom source record", slog.String("error", err.Error()))
			r.custom = nil
		}
	}

	if id, ok, err := store.Get(keyActiveSource); err != nil {
		return nil, fmt.Errorf("registry: load active source: %w", err)
	} else if ok {
		r.activeID = id
	}

	return r, nil
}

// SetEvictHook registers a callback invoked with the source id whenever a
// source is removed, so cached state keyed by that id can be invalidated.
func (r *Registry) SetEvictHook(fn func(sourceID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// List returns all sources: built-ins first in configured order, then
// custom sources in creation order.
func (r *Registry) List() []models.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Source, 0, len(r.builtIn)+len(r.custom))
	out = append(out, r.builtIn...)
	out = append(out, r.custom...)
	return out
}

var extensionRe = regexp.MustCompile(`^\.[a-z0-9]+$`)

// Candidate is a proto-Source submitted to Add; it lacks an id.
type Candidate struct {
	DisplayName        string
	Owner              string
	Repo               string
	Branch             string
	ExcludedFolders    []string
	AcceptedExtensions []string
}

// Validate checks the candidate's required fields and extension shape.
func (c Candidate) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DisplayName, validation.Required),
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.AcceptedExtensions, validation.Required,
			validation.Each(validation.Match(extensionRe).
				Error("must be a lowercase dot-prefixed extension like .png"))),
	)
}

// Add validates the candidate, assigns it a fresh id, appends it to the
// custom list and persists the updated registry. A source with the same
// (owner, repo, branch) triple is rejected with ErrDuplicateSource; on any
// error the registry is unchanged.
func (r *Registry) Add(c Candidate) (models.Source, error) {
	if err := c.Validate(); err != nil {
		return models.Source{}, fmt.Errorf("registry: invalid source: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range append(append([]models.Source{}, r.builtIn...), r.custom...) {
		if strings.EqualFold(s.Owner, c.Owner) && strings.EqualFold(s.Repo, c.Repo) && s.Branch == c.Branch {
			return models.Source{}, fmt.Errorf("registry: %s/%s@%s: %w",
				c.Owner, c.Repo, c.Branch, apperr.ErrDuplicateSource)
		}
	}

	src := models.Source{
		ID:                 newSourceID(),
		DisplayName:        c.DisplayName,
		Owner:              c.Owner,
		Repo:               c.Repo,
		Branch:             c.Branch,
		TreeRef:            c.Branch,
		ExcludedFolders:    c.ExcludedFolders,
		AcceptedExtensions: c.AcceptedExtensions,
		CreatedAt:          time.Now().UTC(),
	}

	updated := append(append([]models.Source{}, r.custom...), src)
	if err := r.persistCustom(updated); err != nil {
		return models.Source{}, err
	}
	r.custom = updated
	return src, nil
}

// Remove deletes a custom source. Removing a built-in fails with
// ErrBuiltInSource; removing the active source atomically falls the active
// pointer back to the default built-in. The eviction hook fires so cached
// snapshots keyed by the id are dropped.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.builtIn {
		if s.ID == id {
			return fmt.Errorf("registry: %s: %w", id, apperr.ErrBuiltInSource)
		}
	}

	idx := -1
	for i, s := range r.custom {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("registry: %s: %w", id, apperr.ErrSourceNotFound)
	}

	updated := append(append([]models.Source{}, r.custom[:idx]...), r.custom[idx+1:]...)
	if err := r.persistCustom(updated); err != nil {
		return err
	}
	r.custom = updated

	if r.activeID == id {
		r.setActiveLocked(r.builtIn[0].ID)
	}
	if r.onEvict != nil {
		r.onEvict(id)
	}
	return nil
}

// SetActive marks the source with the given id as active.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.findLocked(id); !ok {
		return fmt.Errorf("registry: %s: %w", id, apperr.ErrSourceNotFound)
	}
	r.setActiveLocked(id)
	return nil
}

// Active returns the active source. A stale or missing active id heals to
// the first built-in source; this never fails.
func (r *Registry) Active() models.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.findLocked(r.activeID); ok {
		return src
	}
	return r.builtIn[0]
}

// Find returns the source with the given id.
func (r *Registry) Find(id string) (models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.findLocked(id); ok {
		return src, nil
	}
	return models.Source{}, fmt.Errorf("registry: %s: %w", id, apperr.ErrSourceNotFound)
}

func (r *Registry) findLocked(id string) (models.Source, bool) {
	if id == "" {
		return models.Source{}, false
	}
	for _, s := range r.builtIn {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range r.custom {
		if s.ID == id {
			return s, true
		}
	}
	return models.Source{}, false
}

// setActiveLocked updates the active pointer. The stored copy is a UI
// preference: a failed write is logged and swallowed, the in-memory
// pointer stays correct either way.
func (r *Registry) setActiveLocked(id string) {
	r.activeID = id
	if err := r.store.Set(keyActiveSource, id); err != nil {
		r.logger.Warn("persist active source failed",
			slog.String("source", id),
			slog.String("error", err.Error()))
	}
}

func (r *Registry) persistCustom(sources []models.Source) error {
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("registry: encode custom sources: %w", err)
	}
	if err := r.store.Set(keyCustomSources, string(raw)); err != nil {
		return fmt.Errorf("registry: persist custom sources: %w", err)
	}
	return nil
}

func newSourceID() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return "src-" + hex.EncodeToString(b[:])
}
