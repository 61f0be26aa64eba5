package models

import "strings"

// EntryKind distinguishes files from directories in a repository listing.
type EntryKind string

// Entry kinds.
const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// TreeEntry is one row of a recursive repository listing, exactly as the
// remote reported it. Size is 0 when the remote omits it (directories).
type TreeEntry struct {
	Path string    `json:"path"`
	Kind EntryKind `json:"kind"`
	Size int64     `json:"size,omitempty"`
}

// RepositorySnapshot is the complete recursive listing for one source.
// Immutable once cached; Truncated is true when the remote capped the
// listing before the end of the tree.
type RepositorySnapshot struct {
	SourceID  string      `json:"source_id"`
	Ref       string      `json:"ref"`
	Entries   []TreeEntry `json:"entries"`
	Truncated bool        `json:"truncated"`
}

// UncategorizedName is the reserved grouping for images that sit at the
// repository root, with no directory component in their path.
const UncategorizedName = "uncategorized"

// CategoryPath returns the directory segments an image path is grouped
// under: all segments but the last, or ["uncategorized"] for a bare
// filename with no separator.
func CategoryPath(p string) []string {
	segments := strings.Split(p, "/")
	if len(segments) == 1 {
		return []string{UncategorizedName}
	}
	return segments[:len(segments)-1]
}
