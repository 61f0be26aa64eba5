// Package models defines the domain types for Lumen.
package models

import (
	"path"
	"strings"
	"time"
)

// Source describes one configured image repository ("engine"): where the
// files live and which of them count as gallery images.
type Source struct {
	ID                 string    `json:"id"`
	DisplayName        string    `json:"display_name"`
	Owner              string    `json:"owner"`
	Repo               string    `json:"repo"`
	Branch             string    `json:"branch"`
	TreeRef            string    `json:"tree_ref"`
	ExcludedFolders    []string  `json:"excluded_folders,omitempty"`
	AcceptedExtensions []string  `json:"accepted_extensions"`
	BuiltIn            bool      `json:"built_in"`
	CreatedAt          time.Time `json:"created_at"`
}

// Accepts reports whether the file at p has one of the source's accepted
// extensions. Comparison is case-insensitive.
func (s Source) Accepts(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range s.AcceptedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Excludes reports whether folder is one of the source's excluded top-level
// folders.
func (s Source) Excludes(folder string) bool {
	for _, f := range s.ExcludedFolders {
		if folder == f {
			return true
		}
	}
	return false
}
