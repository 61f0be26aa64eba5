// Package gallery composes the registry, snapshot cache and query engine
// into the operations a rendering layer consumes.
package gallery

import (
	"context"
	"log/slog"

	"github.com/starford/lumen/internal/apperr"
	"github.com/starford/lumen/internal/catalog"
	"github.com/starford/lumen/internal/github"
	"github.com/starford/lumen/internal/models"
	"github.com/starford/lumen/internal/query"
	"github.com/starford/lumen/internal/registry"
	"github.com/starford/lumen/internal/thumb"
	"github.com/starford/lumen/internal/treecache"
)

// DefaultPageSize applies when a browse request leaves PageSize unset.
const DefaultPageSize = 30

// fallbackRef is tried once when a source's configured ref does not exist.
const fallbackRef = "master"

// Service coordinates source management and gallery queries.
type Service struct {
	registry *registry.Registry
	cache    *treecache.Cache
	thumbs   thumb.Config
	logger   *slog.Logger
}

// NewService creates a gallery service and wires source removal to cache
// eviction.
func NewService(reg *registry.Registry, cache *treecache.Cache, thumbs thumb.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{registry: reg, cache: cache, thumbs: thumbs, logger: logger}
	reg.SetEvictHook(cache.Evict)
	return s
}

// BrowseRequest selects a page of images. An empty SourceID means the
// active source; an empty Category means all categories.
type BrowseRequest struct {
	SourceID  string
	Category  string
	Query     string
	Sort      query.SortOption
	PageIndex int
	PageSize  int
}

// BrowseResult is one page of the filtered, sorted image list.
type BrowseResult struct {
	Source    models.Source
	Images    []models.Image
	Total     int
	PageIndex int
	PageSize  int
	Truncated bool
}

// Browse answers a gallery query. Filters, sort and pagination compose in
// a fixed order: category filter, then free-text filter, then sort, then
// pagination. Search operates within the selected category and the page
// is cut from the final sorted set.
func (s *Service) Browse(ctx context.Context, req BrowseRequest) (*BrowseResult, error) {
	src, err := s.resolveSource(req.SourceID)
	if err != nil {
		return nil, err
	}
	snap, src, err := s.snapshot(ctx, src)
	if err != nil {
		return nil, err
	}

	images := s.buildImages(snap, src)
	tree := catalog.Build(snap, src)

	images = query.FilterByCategory(images, req.Category, tree)
	images = query.FilterByQuery(images, req.Query)
	total := len(images)
	images = query.SortImages(images, req.Sort)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	images = query.Paginate(images, req.PageIndex, pageSize)

	return &BrowseResult{
		Source:    src,
		Images:    images,
		Total:     total,
		PageIndex: req.PageIndex,
		PageSize:  pageSize,
		Truncated: snap.Truncated,
	}, nil
}

// CategoryTree returns the category hierarchy for a source (the active one
// when sourceID is empty).
func (s *Service) CategoryTree(ctx context.Context, sourceID string) (*catalog.Tree, error) {
	src, err := s.resolveSource(sourceID)
	if err != nil {
		return nil, err
	}
	snap, src, err := s.snapshot(ctx, src)
	if err != nil {
		return nil, err
	}
	return catalog.Build(snap, src), nil
}

// Sources lists every configured source.
func (s *Service) Sources() []models.Source {
	return s.registry.List()
}

// ActiveSource returns the active source.
func (s *Service) ActiveSource() models.Source {
	return s.registry.Active()
}

// SetActive switches the active source.
func (s *Service) SetActive(id string) error {
	return s.registry.SetActive(id)
}

// AddSource registers a new custom source.
func (s *Service) AddSource(c registry.Candidate) (models.Source, error) {
	return s.registry.Add(c)
}

// RemoveSource deletes a custom source; its cached snapshot is evicted
// through the registry's hook.
func (s *Service) RemoveSource(id string) error {
	return s.registry.Remove(id)
}

// ClearCache evicts the snapshot for one source, or every snapshot when id
// is empty.
func (s *Service) ClearCache(id string) {
	if id == "" {
		s.cache.EvictAll()
		return
	}
	s.cache.Evict(id)
}

func (s *Service) resolveSource(id string) (models.Source, error) {
	if id == "" {
		return s.registry.Active(), nil
	}
	return s.registry.Find(id)
}

// snapshot fetches through the cache, retrying a missing ref once against
// the conventional fallback branch. It returns the source that actually
// produced the snapshot so render URLs point at the right ref; the
// original error is reported when the fallback misses too.
func (s *Service) snapshot(ctx context.Context, src models.Source) (*models.RepositorySnapshot, models.Source, error) {
	snap, err := s.cache.Snapshot(ctx, src)
	if err == nil {
		return snap, src, nil
	}
	if !apperr.IsFetchKind(err, apperr.FetchNotFound) || src.TreeRef == fallbackRef {
		return nil, src, err
	}

	s.logger.Info("ref not found, trying fallback branch",
		slog.String("source", src.ID),
		slog.String("ref", src.TreeRef),
		slog.String("fallback", fallbackRef))

	alt := src
	alt.TreeRef = fallbackRef
	snap, altErr := s.cache.Snapshot(ctx, alt)
	if altErr != nil {
		return nil, src, err
	}
	return snap, alt, nil
}

func (s *Service) buildImages(snap *models.RepositorySnapshot, src models.Source) []models.Image {
	ref := snap.Ref
	if ref == "" {
		ref = src.TreeRef
	}
	render := func(path string) string {
		return github.RawURL(src.Owner, src.Repo, ref, path)
	}
	return query.BuildImages(snap, src, render, s.thumbs.PreviewURL)
}
