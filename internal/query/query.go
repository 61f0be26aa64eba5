// Package query answers filter, sort and paginate queries over the derived
// image list. All functions are pure: they never mutate their inputs.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/lumen/internal/catalog"
	"github.com/starford/lumen/internal/models"
)

// SortOption selects an ordering for SortImages.
type SortOption string

const (
	SortDefault  SortOption = "default"
	SortNameAsc  SortOption = "name-asc"
	SortNameDesc SortOption = "name-desc"
	SortSizeAsc  SortOption = "size-asc"
	SortSizeDesc SortOption = "size-desc"
)

// URLBuilder maps a repository file path to a browsable URL.
type URLBuilder func(path string) string

// BuildImages materializes the gallery view over a snapshot: one Image per
// accepted, non-excluded file, in listing order. render produces the
// full-resolution URL for a path; preview derives the downscaled rendition
// URL from it (either may be nil, leaving the field empty).
func BuildImages(snapshot *models.RepositorySnapshot, source models.Source, render URLBuilder, preview URLBuilder) []models.Image {
	images := make([]models.Image, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if entry.Kind != models.KindFile || !source.Accepts(entry.Path) {
			continue
		}
		catPath := models.CategoryPath(entry.Path)
		if source.Excludes(catPath[0]) {
			continue
		}
		segments := strings.Split(entry.Path, "/")

		img := models.Image{
			Path:         entry.Path,
			DisplayName:  segments[len(segments)-1],
			Category:     catPath[0],
			PathSegments: segments,
			ByteSize:     entry.Size,
		}
		if render != nil {
			img.RenderURL = render(entry.Path)
			if preview != nil {
				img.PreviewURL = preview(img.RenderURL)
			}
		}
		images = append(images, img)
	}
	return images
}

// categoryPathOf returns the slash-joined directory portion of an image's
// path, or the reserved name for a separator-free path.
func categoryPathOf(img models.Image) string {
	if len(img.PathSegments) <= 1 {
		return models.UncategorizedName
	}
	return strings.Join(img.PathSegments[:len(img.PathSegments)-1], "/")
}

// FilterByCategory retains the images under categoryPath in tree: the
// node's own category plus every descendant category. The reserved
// "uncategorized" name matches only images with no path separator. An
// unknown categoryPath degrades to exact matching on each image's
// top-level category rather than failing.
func FilterByCategory(images []models.Image, categoryPath string, tree *catalog.Tree) []models.Image {
	if categoryPath == "" {
		return images
	}

	if categoryPath == models.UncategorizedName {
		out := make([]models.Image, 0)
		for _, img := range images {
			if len(img.PathSegments) == 1 {
				out = append(out, img)
			}
		}
		return out
	}

	eligible, ok := tree.PathsUnder(categoryPath)
	if !ok {
		out := make([]models.Image, 0)
		for _, img := range images {
			if img.Category == categoryPath {
				out = append(out, img)
			}
		}
		return out
	}

	out := make([]models.Image, 0)
	for _, img := range images {
		cp := categoryPathOf(img)
		if _, hit := eligible[cp]; hit {
			out = append(out, img)
			continue
		}
		prefix := categoryPath + "/"
		if strings.HasPrefix(cp, prefix) {
			out = append(out, img)
		}
	}
	return out
}

// FilterByQuery retains images whose display name, category or full path
// contains q, case-insensitively. A blank query returns the input
// unchanged.
func FilterByQuery(images []models.Image, q string) []models.Image {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return images
	}
	out := make([]models.Image, 0)
	for _, img := range images {
		if strings.Contains(strings.ToLower(img.DisplayName), q) ||
			strings.Contains(strings.ToLower(img.Category), q) ||
			strings.Contains(strings.ToLower(img.Path), q) {
			out = append(out, img)
		}
	}
	return out
}

// SortImages returns a new slice ordered by option. The sort is stable:
// images with equal keys keep their relative input order. SortDefault (and
// any unknown option) preserves insertion order. A missing byte size sorts
// as zero.
func SortImages(images []models.Image, option SortOption) []models.Image {
	out := make([]models.Image, len(images))
	copy(out, images)

	// Collators keep internal buffers, so each call gets its own.
	switch option {
	case SortNameAsc:
		c := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
		})
	case SortNameDesc:
		c := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].DisplayName, out[j].DisplayName) > 0
		})
	case SortSizeAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ByteSize < out[j].ByteSize
		})
	case SortSizeDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ByteSize > out[j].ByteSize
		})
	}
	return out
}

// Paginate returns the pageIndex-th slice of size pageSize. An
// out-of-range start yields an empty slice, never an error.
func Paginate(images []models.Image, pageIndex, pageSize int) []models.Image {
	if pageIndex < 0 || pageSize <= 0 {
		return []models.Image{}
	}
	start := pageIndex * pageSize
	if start >= len(images) {
		return []models.Image{}
	}
	end := min(start+pageSize, len(images))
	return images[start:end]
}
