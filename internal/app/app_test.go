package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/remote"
	filestore "github.com/MrSnakeDoc/marksync/internal/store/file"
)

// bookmarkServer is a minimal stand-in for the remote bookmark service.
type bookmarkServer struct {
	mu       sync.Mutex
	token    string
	searches []url.Values
}

func (s *bookmarkServer) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			want := "Bearer " + s.token
			s.mu.Unlock()
			if r.Header.Get("Authorization") != want {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/v1/bookmarks/search", authed(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.searches = append(s.searches, r.URL.Query())
		s.mu.Unlock()
		writeJSON(w, domain.BookmarkPage{
			Bookmarks: []domain.Bookmark{{ID: 2, URL: "https://go.dev", Title: "Go", Tags: []string{"dev"}}},
			Total:     1,
		})
	}))
	mux.HandleFunc("/api/v1/bookmarks/count", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, remote.Count{Count: 1})
	}))
	mux.HandleFunc("/api/v1/tags", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.TagCount{{Name: "dev", Count: 1}})
	}))
	mux.HandleFunc("/api/v1/config", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.ServerConfig{Version: "1.0.0"})
	}))
	mux.HandleFunc("/api/v1/tasks", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.TaskQueue{})
	}))
	mux.HandleFunc("/api/v1/semantic/status", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.SemanticStatus{})
	}))
	mux.HandleFunc("/api/v1/workspaces", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.Workspace{{ID: "ws1", Name: "Dev", Filter: domain.WorkspaceFilter{Whitelist: []string{"dev"}}}})
	}))
	return mux
}

func (s *bookmarkServer) lastSearch(t *testing.T) url.Values {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.searches) == 0 {
		t.Fatal("no search request reached the server")
	}
	return s.searches[len(s.searches)-1]
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL:       serverURL,
		RequestTimeout:  5 * time.Second,
		Profile:         "test",
		ListenAddr:      "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		StateFile:       filepath.Join(t.TempDir(), "state.yaml"),
		PollInterval:    time.Minute,
	}
}

func TestSearchOnceUsesStoredCredentialAndWorkspace(t *testing.T) {
	bs := &bookmarkServer{token: "secret"}
	srv := httptest.NewServer(bs.handler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()
	if err := filestore.NewStore(cfg.StateFile, cfg.Profile).Save(ctx, domain.ClientState{
		Credential:      "secret",
		ActiveWorkspace: "ws1",
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	core, err := NewCore(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	snap, err := core.SearchOnce(ctx, domain.SearchQuery{Query: "golang"}, false, "")
	if err != nil {
		t.Fatalf("SearchOnce: %v", err)
	}
	if snap.Total != 1 || len(snap.Bookmarks) != 1 || snap.Bookmarks[0].ID != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	sent := bs.lastSearch(t)
	if sent.Get("q") != "golang" || sent.Get("keyword") != "#dev" {
		t.Fatalf("search params = %v", sent)
	}
	if snap.Effective.Keyword != "#dev" {
		t.Fatalf("effective keyword = %q", snap.Effective.Keyword)
	}
}

func TestSearchOnceUnauthorizedForgetsCredential(t *testing.T) {
	bs := &bookmarkServer{token: "fresh"}
	srv := httptest.NewServer(bs.handler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()
	store := filestore.NewStore(cfg.StateFile, cfg.Profile)
	if err := store.Save(ctx, domain.ClientState{Credential: "stale"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	core, err := NewCore(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	_, err = core.SearchOnce(ctx, domain.SearchQuery{Query: "x"}, false, "")
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Credential != "" {
		t.Fatalf("stale credential kept: %q", st.Credential)
	}
}

func TestNewCoreHydratesFromStartURL(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.StartURL = "https://ui.example.com/?q=rust&all=true&workspace=ws9"

	core, err := NewCore(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	cur := core.Engine.Query().Current()
	if cur.Search.Query != "rust" || !cur.ShowAll || cur.WorkspaceID != "ws9" {
		t.Fatalf("hydrated state = %+v", cur)
	}
}

func TestOpenStoreDefaultsToFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	store, client, err := OpenStore(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if client != nil {
		t.Fatal("no redis client expected without MARKSYNC_REDIS_ADDR")
	}
	if _, ok := store.(*filestore.Store); !ok {
		t.Fatalf("store = %T", store)
	}
}
