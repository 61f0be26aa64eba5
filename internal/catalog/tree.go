// Package catalog derives the hierarchical category tree from a flat
// repository listing.
package catalog

import (
	"sort"
	"strings"

	"github.com/starford/lumen/internal/models"
)

// Tree is the category hierarchy for one snapshot, with a fullPath index
// so lookups are map accesses instead of recursive walks.
type Tree struct {
	Roots []*models.CategoryNode

	byPath map[string]*models.CategoryNode
}

// Build constructs the category tree for snapshot under source's filtering
// rules. It performs no I/O, does not mutate its inputs, and is
// deterministic: the same snapshot and source always produce a
// structurally identical tree.
//
// Files whose extension is not accepted are dropped, as are files whose
// top-level folder is excluded. A file with no directory component counts
// toward the reserved "uncategorized" root.
func Build(snapshot *models.RepositorySnapshot, source models.Source) *Tree {
	t := &Tree{byPath: make(map[string]*models.CategoryNode)}

	for _, entry := range snapshot.Entries {
		if entry.Kind != models.KindFile || !source.Accepts(entry.Path) {
			continue
		}
		catPath := models.CategoryPath(entry.Path)
		if source.Excludes(catPath[0]) {
			continue
		}
		t.insert(catPath)
	}

	for _, root := range t.Roots {
		sumTotals(root)
	}
	sortChildren(t.Roots)

	return t
}

// insert increments the deepest node of catPath, creating every missing
// prefix node on the way down.
func (t *Tree) insert(catPath []string) {
	var full string
	for depth, name := range catPath {
		if depth == 0 {
			full = name
		} else {
			full = full + "/" + name
		}
		node, ok := t.byPath[full]
		if !ok {
			node = &models.CategoryNode{
				Name:          name,
				FullPath:      full,
				Depth:         depth,
				Uncategorized: depth == 0 && name == models.UncategorizedName,
			}
			t.byPath[full] = node
			if depth == 0 {
				t.Roots = append(t.Roots, node)
			} else {
				parent := t.byPath[full[:len(full)-len(name)-1]]
				parent.Children = append(parent.Children, node)
			}
		}
		if depth == len(catPath)-1 {
			node.DirectCount++
		}
	}
}

func sumTotals(n *models.CategoryNode) int {
	total := n.DirectCount
	for _, child := range n.Children {
		total += sumTotals(child)
	}
	n.TotalCount = total
	return total
}

func sortChildren(nodes []*models.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	for _, n := range nodes {
		sortChildren(n.Children)
	}
}

// Lookup returns the node at fullPath, if any.
func (t *Tree) Lookup(fullPath string) (*models.CategoryNode, bool) {
	node, ok := t.byPath[fullPath]
	return node, ok
}

// PathsUnder returns the set of full paths of the node at fullPath and all
// of its descendants. The second return is false when fullPath is not in
// the tree.
func (t *Tree) PathsUnder(fullPath string) (map[string]struct{}, bool) {
	if _, ok := t.byPath[fullPath]; !ok {
		return nil, false
	}
	prefix := fullPath + "/"
	paths := make(map[string]struct{})
	for p := range t.byPath {
		if p == fullPath || strings.HasPrefix(p, prefix) {
			paths[p] = struct{}{}
		}
	}
	return paths, true
}

// TotalImages returns the number of images the tree accounts for: the sum
// of every root's cumulative count.
func (t *Tree) TotalImages() int {
	var total int
	for _, root := range t.Roots {
		total += root.TotalCount
	}
	return total
}
