package query

import (
	"reflect"
	"testing"

	"github.com/starford/lumen/internal/catalog"
	"github.com/starford/lumen/internal/models"
	"github.com/starford/lumen/internal/testutil"
)

func buildFixture(t *testing.T, paths ...string) ([]models.Image, *catalog.Tree) {
	t.Helper()
	src := testutil.Source("s1")
	snap := testutil.Snapshot("s1", paths...)
	images := BuildImages(snap, src, nil, nil)
	return images, catalog.Build(snap, src)
}

func names(images []models.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.DisplayName
	}
	return out
}

func TestBuildImages(t *testing.T) {
	src := testutil.Source("s1")
	snap := &models.RepositorySnapshot{
		SourceID: "s1",
		Entries: []models.TreeEntry{
			{Path: "nature/sea.png", Kind: models.KindFile, Size: 2048},
			{Path: "nature", Kind: models.KindDirectory},
			{Path: "notes.txt", Kind: models.KindFile},
			{Path: "loose.png", Kind: models.KindFile, Size: 10},
			{Path: ".github/logo.png", Kind: models.KindFile},
		},
	}
	render := func(p string) string { return "raw/" + p }
	preview := func(u string) string { return "thumb?" + u }

	images := BuildImages(snap, src, render, preview)

	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	sea := images[0]
	if sea.DisplayName != "sea.png" || sea.Category != "nature" || sea.ByteSize != 2048 {
		t.Errorf("unexpected image: %+v", sea)
	}
	if sea.RenderURL != "raw/nature/sea.png" || sea.PreviewURL != "thumb?raw/nature/sea.png" {
		t.Errorf("unexpected URLs: %q %q", sea.RenderURL, sea.PreviewURL)
	}
	loose := images[1]
	if loose.Category != models.UncategorizedName {
		t.Errorf("loose file category = %q, want %q", loose.Category, models.UncategorizedName)
	}
}

func TestFilterByCategory_Subtree(t *testing.T) {
	images, tree := buildFixture(t,
		"a/1.png", "a/b/2.png", "a/b/c/3.png", "ax/4.png", "5.png")

	got := FilterByCategory(images, "a", tree)

	want := []string{"1.png", "2.png", "3.png"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("filtered = %v, want %v", names(got), want)
	}
}

func TestFilterByCategory_Uncategorized(t *testing.T) {
	images, tree := buildFixture(t,
		"a/1.png", "uncategorized/2.png", "3.png", "4.png")

	got := FilterByCategory(images, models.UncategorizedName, tree)

	// Only separator-free paths match, never the literal folder.
	want := []string{"3.png", "4.png"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("filtered = %v, want %v", names(got), want)
	}
}

func TestFilterByCategory_UnknownFallsBackToFlatMatch(t *testing.T) {
	images, _ := buildFixture(t, "a/1.png", "b/2.png")
	empty := catalog.Build(testutil.Snapshot("s1"), testutil.Source("s1"))

	got := FilterByCategory(images, "a", empty)

	if !reflect.DeepEqual(names(got), []string{"1.png"}) {
		t.Errorf("fallback filtered = %v, want [1.png]", names(got))
	}
}

func TestFilterByCategory_EmptyPathReturnsAll(t *testing.T) {
	images, tree := buildFixture(t, "a/1.png", "2.png")
	if got := FilterByCategory(images, "", tree); len(got) != 2 {
		t.Errorf("got %d images, want all 2", len(got))
	}
}

func TestFilterByQuery(t *testing.T) {
	images, _ := buildFixture(t, "nature/Sunset.png", "urban/night.png", "sun.png")

	cases := []struct {
		query string
		want  []string
	}{
		{"SUN", []string{"Sunset.png", "sun.png"}},
		{"urban", []string{"night.png"}},
		{"  ", []string{"Sunset.png", "night.png", "sun.png"}},
		{"nomatch", []string{}},
	}
	for _, tc := range cases {
		got := names(FilterByQuery(images, tc.query))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("query %q = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestSortImages(t *testing.T) {
	images := []models.Image{
		{DisplayName: "b.png", ByteSize: 30},
		{DisplayName: "A.png", ByteSize: 10},
		{DisplayName: "c.png", ByteSize: 20},
	}

	cases := []struct {
		option SortOption
		want   []string
	}{
		{SortDefault, []string{"b.png", "A.png", "c.png"}},
		{SortNameAsc, []string{"A.png", "b.png", "c.png"}},
		{SortNameDesc, []string{"c.png", "b.png", "A.png"}},
		{SortSizeAsc, []string{"A.png", "c.png", "b.png"}},
		{SortSizeDesc, []string{"b.png", "c.png", "A.png"}},
		{SortOption("bogus"), []string{"b.png", "A.png", "c.png"}},
	}
	for _, tc := range cases {
		got := names(SortImages(images, tc.option))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("sort %q = %v, want %v", tc.option, got, tc.want)
		}
	}

	// Input order must survive sorting.
	if images[0].DisplayName != "b.png" {
		t.Error("SortImages mutated its input")
	}
}

func TestSortImages_Stable(t *testing.T) {
	images := []models.Image{
		{Path: "a/x.png", DisplayName: "x.png", ByteSize: 5},
		{Path: "b/x.png", DisplayName: "x.png", ByteSize: 5},
		{Path: "c/x.png", DisplayName: "x.png", ByteSize: 5},
	}
	for _, opt := range []SortOption{SortNameAsc, SortNameDesc, SortSizeAsc, SortSizeDesc} {
		got := SortImages(images, opt)
		for i, img := range got {
			if img.Path != images[i].Path {
				t.Errorf("sort %q not stable: position %d is %s", opt, i, img.Path)
			}
		}
	}
}

func TestPaginate(t *testing.T) {
	images := []models.Image{
		{DisplayName: "0"}, {DisplayName: "1"}, {DisplayName: "2"},
		{DisplayName: "3"}, {DisplayName: "4"},
	}

	cases := []struct {
		page, size int
		want       []string
	}{
		{0, 2, []string{"0", "1"}},
		{1, 2, []string{"2", "3"}},
		{2, 2, []string{"4"}},
		{3, 2, []string{}},
		{0, 10, []string{"0", "1", "2", "3", "4"}},
		{-1, 2, []string{}},
		{0, 0, []string{}},
	}
	for _, tc := range cases {
		got := names(Paginate(images, tc.page, tc.size))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("paginate(%d, %d) = %v, want %v", tc.page, tc.size, got, tc.want)
		}
	}
}

func TestComposition_FixedOrder(t *testing.T) {
	images, tree := buildFixture(t,
		"art/zz.png", "art/aa.png", "art/deep/ab.png", "other/aa.png", "aa.png")

	filtered := FilterByCategory(images, "art", tree)
	filtered = FilterByQuery(filtered, "a")
	sorted := SortImages(filtered, SortNameAsc)
	page := Paginate(sorted, 0, 2)

	want := []string{"aa.png", "ab.png"}
	if !reflect.DeepEqual(names(page), want) {
		t.Errorf("pipeline = %v, want %v", names(page), want)
	}
}
