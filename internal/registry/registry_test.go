package registry

import (
	"errors"
	"testing"

	"github.com/starford/lumen/internal/apperr"
	"github.com/starford/lumen/internal/kv"
	"github.com/starford/lumen/internal/models"
	"github.com/starford/lumen/internal/testutil"
)

func testRegistry(t *testing.T) (*Registry, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	reg, err := New(store, []models.Source{testutil.Source("builtin-1")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return reg, store
}

func candidate() Candidate {
	return Candidate{
		DisplayName:        "My Walls",
		Owner:              "alice",
		Repo:               "wallpapers",
		Branch:             "main",
		AcceptedExtensions: []string{".png"},
	}
}

func TestNew_RequiresBuiltIn(t *testing.T) {
	if _, err := New(kv.NewMemory(), nil, nil); err == nil {
		t.Fatal("expected error without built-in sources")
	}
}

func TestAdd_AssignsIDAndPersists(t *testing.T) {
	reg, store := testRegistry(t)

	src, err := reg.Add(candidate())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if src.ID == "" || src.BuiltIn || src.CreatedAt.IsZero() {
		t.Errorf("unexpected source: %+v", src)
	}
	if src.TreeRef != "main" {
		t.Errorf("tree ref = %q, want branch", src.TreeRef)
	}

	// A fresh registry over the same store sees the source.
	reloaded, err := New(store, []models.Source{testutil.Source("builtin-1")}, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(reloaded.List()); got != 2 {
		t.Errorf("reloaded source count = %d, want 2", got)
	}
}

func TestAdd_ValidatesCandidate(t *testing.T) {
	reg, _ := testRegistry(t)

	bad := candidate()
	bad.Owner = ""
	if _, err := reg.Add(bad); err == nil {
		t.Error("missing owner should fail validation")
	}

	bad = candidate()
	bad.AcceptedExtensions = nil
	if _, err := reg.Add(bad); err == nil {
		t.Error("empty extensions should fail validation")
	}

	bad = candidate()
	bad.AcceptedExtensions = []string{"PNG"}
	if _, err := reg.Add(bad); err == nil {
		t.Error("non-dot-prefixed uppercase extension should fail validation")
	}
}

func TestAdd_DuplicateTripleRejected(t *testing.T) {
	reg, _ := testRegistry(t)

	if _, err := reg.Add(candidate()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := len(reg.List())

	dup := candidate()
	dup.DisplayName = "Different Name"
	_, err := reg.Add(dup)
	if !errors.Is(err, apperr.ErrDuplicateSource) {
		t.Fatalf("err = %v, want ErrDuplicateSource", err)
	}
	if got := len(reg.List()); got != before {
		t.Errorf("registry changed on failed add: %d -> %d sources", before, got)
	}
}

func TestAdd_DuplicateAgainstBuiltIn(t *testing.T) {
	reg, _ := testRegistry(t)

	c := candidate()
	c.Owner = "acme"
	c.Repo = "pictures"
	c.Branch = "main"
	if _, err := reg.Add(c); !errors.Is(err, apperr.ErrDuplicateSource) {
		t.Fatalf("err = %v, want ErrDuplicateSource", err)
	}
}

func TestList_BuiltInsFirst(t *testing.T) {
	reg, _ := testRegistry(t)
	first, _ := reg.Add(candidate())
	c2 := candidate()
	c2.Branch = "dev"
	second, _ := reg.Add(c2)

	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("got %d sources, want 3", len(list))
	}
	if !list[0].BuiltIn {
		t.Error("built-in should come first")
	}
	if list[1].ID != first.ID || list[2].ID != second.ID {
		t.Error("custom sources should keep creation order")
	}
}

func TestRemove_BuiltInRejected(t *testing.T) {
	reg, _ := testRegistry(t)
	if err := reg.Remove("builtin-1"); !errors.Is(err, apperr.ErrBuiltInSource) {
		t.Fatalf("err = %v, want ErrBuiltInSource", err)
	}
}

func TestRemove_UnknownID(t *testing.T) {
	reg, _ := testRegistry(t)
	if err := reg.Remove("nope"); !errors.Is(err, apperr.ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestRemove_ActiveFallsBackToBuiltIn(t *testing.T) {
	reg, _ := testRegistry(t)
	src, _ := reg.Add(candidate())
	if err := reg.SetActive(src.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	var evicted []string
	reg.SetEvictHook(func(id string) { evicted = append(evicted, id) })

	if err := reg.Remove(src.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := reg.Active().ID; got != "builtin-1" {
		t.Errorf("active = %q, want fallback to builtin-1", got)
	}
	if len(evicted) != 1 || evicted[0] != src.ID {
		t.Errorf("evict hook calls = %v, want [%s]", evicted, src.ID)
	}
}

func TestSetActive_UnknownID(t *testing.T) {
	reg, _ := testRegistry(t)
	if err := reg.SetActive("ghost"); !errors.Is(err, apperr.ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestActive_SelfHealing(t *testing.T) {
	store := kv.NewMemory()
	// A stale active id left behind by a removed source.
	if err := store.Set("sources/active", "long-gone"); err != nil {
		t.Fatal(err)
	}
	reg, err := New(store, []models.Source{testutil.Source("builtin-1")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := reg.Active().ID; got != "builtin-1" {
		t.Errorf("active = %q, want builtin-1", got)
	}
}

func TestNew_CorruptCustomRecordDiscarded(t *testing.T) {
	store := kv.NewMemory()
	if err := store.Set("sources/custom", "{not json"); err != nil {
		t.Fatal(err)
	}
	reg, err := New(store, []models.Source{testutil.Source("builtin-1")}, nil)
	if err != nil {
		t.Fatalf("New should survive a corrupt record: %v", err)
	}
	if got := len(reg.List()); got != 1 {
		t.Errorf("source count = %d, want 1", got)
	}
}
