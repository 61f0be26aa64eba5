package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/lumen/internal/apperr"
	"github.com/starford/lumen/internal/models"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, nil, nil)
}

func TestFetchTree_ParsesListing(t *testing.T) {
	var gotPath, gotQuery string
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tree": [
				{"path": "art", "type": "tree"},
				{"path": "art/a.png", "type": "blob", "size": 123},
				{"path": "sub", "type": "commit"},
				{"path": "b.png", "type": "blob", "size": 7}
			],
			"truncated": true
		}`))
	})

	entries, truncated, err := client.FetchTree(context.Background(), "alice", "walls", "main")
	if err != nil {
		t.Fatalf("FetchTree: %v", err)
	}

	if gotPath != "/repos/alice/walls/git/trees/main" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "recursive=1" {
		t.Errorf("query = %q", gotQuery)
	}
	if !truncated {
		t.Error("truncated flag lost")
	}
	// Submodule commit rows are skipped.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Kind != models.KindDirectory || entries[1].Kind != models.KindFile {
		t.Errorf("entry kinds wrong: %+v", entries[:2])
	}
	if entries[1].Path != "art/a.png" || entries[1].Size != 123 {
		t.Errorf("unexpected entry: %+v", entries[1])
	}
}

func TestFetchTree_SkipsMalformedEntries(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"tree": [
				{"type": "blob", "size": 1},
				{"path": "ok.png", "type": "blob"},
				{"path": "no-type.png"},
				{"path": "", "type": "blob"}
			]
		}`))
	})

	entries, _, err := client.FetchTree(context.Background(), "a", "b", "main")
	if err != nil {
		t.Fatalf("FetchTree: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "ok.png" {
		t.Errorf("entries = %+v, want only ok.png", entries)
	}
}

func TestFetchTree_BearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"tree": []}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, TokenHeaders("secret123"), nil)
	if _, _, err := client.FetchTree(context.Background(), "a", "b", "main"); err != nil {
		t.Fatalf("FetchTree: %v", err)
	}
	if gotAuth != "Bearer secret123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestFetchTree_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		rateLeft string
		wantKind apperr.FetchKind
	}{
		{"not found", http.StatusNotFound, "", apperr.FetchNotFound},
		{"bad token", http.StatusUnauthorized, "", apperr.FetchUnauthorized},
		{"rate limited", http.StatusForbidden, "0", apperr.FetchRateLimited},
		{"forbidden", http.StatusForbidden, "5", apperr.FetchUnauthorized},
		{"server error", http.StatusInternalServerError, "", apperr.FetchTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.rateLeft != "" {
					w.Header().Set("X-RateLimit-Remaining", tc.rateLeft)
				}
				w.WriteHeader(tc.status)
			})

			_, _, err := client.FetchTree(context.Background(), "a", "b", "main")
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.IsFetchKind(err, tc.wantKind) {
				t.Errorf("err = %v, want kind %s", err, tc.wantKind)
			}
		})
	}
}

func TestFetchTree_RetriesTransientStatus(t *testing.T) {
	attempts := 0
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"tree": [{"path": "a.png", "type": "blob"}]}`))
	})

	entries, _, err := client.FetchTree(context.Background(), "a", "b", "main")
	if err != nil {
		t.Fatalf("FetchTree after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestRawURL(t *testing.T) {
	got := RawURL("alice", "walls", "main", "art/a b.png")
	want := "https://raw.githubusercontent.com/alice/walls/main/art%2Fa%20b.png"
	if got != want {
		t.Errorf("RawURL = %q, want %q", got, want)
	}
}
