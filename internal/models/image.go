package models

// Image is the gallery view over one accepted TreeEntry. Derived values are
// recomputed whenever the snapshot or thumbnail configuration changes and
// are never mutated in place.
type Image struct {
	Path         string   `json:"path"`
	DisplayName  string   `json:"display_name"`
	Category     string   `json:"category"`
	PathSegments []string `json:"path_segments"`
	ByteSize     int64    `json:"byte_size,omitempty"`
	RenderURL    string   `json:"render_url"`
	PreviewURL   string   `json:"preview_url"`
}

// CategoryNode is one node of the hierarchical category tree.
//
// Uncategorized marks the reserved root node that collects images with no
// directory component. A real root folder literally named "uncategorized"
// shares this node (its subfolders stay ordinary children); category
// filtering on the reserved name matches only separator-free image paths,
// so the sentinel never selects the literal folder's files.
type CategoryNode struct {
	Name          string          `json:"name"`
	FullPath      string          `json:"full_path"`
	DirectCount   int             `json:"direct_count"`
	TotalCount    int             `json:"total_count"`
	Depth         int             `json:"depth"`
	Uncategorized bool            `json:"uncategorized,omitempty"`
	Children      []*CategoryNode `json:"children,omitempty"`
}
