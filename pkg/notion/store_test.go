package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

func seedUser(t *testing.T, uc *config.UserConfig) *config.UserStore {
	t.Helper()
	users := config.NewUserStore(t.TempDir())
	if err := users.Put("user-1", uc); err != nil {
		t.Fatalf("seed user config: %v", err)
	}
	return users
}

func TestCreateNote(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Notion-Version"); got != apiVersion {
			t.Errorf("Notion-Version = %q, want %q", got, apiVersion)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q", got)
		}

		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "page-1",
			"url": "https://notion.so/page-1",
		})
	}))
	defer server.Close()

	users := seedUser(t, &config.UserConfig{
		NotionAPIKey:     "secret-key",
		NotionDatabaseID: "db-1",
	})
	store := NewStore(NewClient().WithBaseURL(server.URL), users)

	ref, err := store.CreateNote(context.Background(), workflow.NoteParams{
		UserID:      "user-1",
		RawContent:  "raw text",
		Content:     "formatted body",
		ContentType: "Note",
		Source:      "telegram",
		Tags:        []string{"Work", "Idea"},
		Title:       "A note",
		Summary:     "short summary",
		Files:       []message.Attachment{{ID: "f1"}},
	})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if ref == nil || ref.ID != "page-1" {
		t.Fatalf("CreateNote() ref = %+v, want page-1", ref)
	}

	props, ok := captured["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("request carried no properties: %v", captured)
	}
	for _, want := range []string{"Title", "Type", "Source", "Content", "Summary", "Tags", "HasAttachment"} {
		if _, ok := props[want]; !ok {
			t.Errorf("property %q missing", want)
		}
	}
	if children, ok := captured["children"].([]interface{}); !ok || len(children) == 0 {
		t.Errorf("expected body paragraph blocks, got %v", captured["children"])
	}
}

func TestCreateNoteWithoutCredentials(t *testing.T) {
	tests := []struct {
		name string
		uc   *config.UserConfig
	}{
		{name: "no api key", uc: &config.UserConfig{NotionDatabaseID: "db-1"}},
		{name: "no database", uc: &config.UserConfig{NotionAPIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(NewClient(), seedUser(t, tt.uc))
			if _, err := store.CreateNote(context.Background(), workflow.NoteParams{UserID: "user-1"}); err == nil {
				t.Fatalf("CreateNote() expected error for unconfigured user")
			}
		})
	}
}

func TestCreateNoteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  400,
			"code":    "validation_error",
			"message": "body failed validation",
		})
	}))
	defer server.Close()

	users := seedUser(t, &config.UserConfig{NotionAPIKey: "k", NotionDatabaseID: "db"})
	store := NewStore(NewClient().WithBaseURL(server.URL), users)

	_, err := store.CreateNote(context.Background(), workflow.NoteParams{UserID: "user-1", Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "body failed validation") {
		t.Fatalf("CreateNote() error = %v, want api message surfaced", err)
	}
}

func TestChunkRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
		want  int
	}{
		{name: "empty", input: "", size: 10, want: 0},
		{name: "single chunk", input: "hello", size: 10, want: 1},
		{name: "exact boundary", input: "aaaaaaaaaa", size: 10, want: 1},
		{name: "two chunks", input: "aaaaaaaaaab", size: 10, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(chunkRunes(tt.input, tt.size)); got != tt.want {
				t.Fatalf("chunkRunes() chunks = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArchiverSweepsStalePages(t *testing.T) {
	var archivedPages []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{"id": "old-1", "archived": false},
					{"id": "old-2", "archived": true},
				},
				"has_more": false,
			})
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/pages/"):
			archivedPages = append(archivedPages, strings.TrimPrefix(r.URL.Path, "/pages/"))
			json.NewEncoder(w).Encode(map[string]interface{}{})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	users := seedUser(t, &config.UserConfig{NotionAPIKey: "k", NotionDatabaseID: "db"})

	archiver, err := NewArchiver(NewClient().WithBaseURL(server.URL), users, "5 0 * * *")
	if err != nil {
		t.Fatalf("NewArchiver() error = %v", err)
	}

	n, err := archiver.sweepUser(context.Background(), "user-1", time.Now())
	if err != nil {
		t.Fatalf("sweepUser() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("sweepUser() archived = %d, want 1", n)
	}
	if len(archivedPages) != 1 || archivedPages[0] != "old-1" {
		t.Fatalf("archived pages = %v, want [old-1]", archivedPages)
	}
}

func TestNewArchiverRejectsBadCron(t *testing.T) {
	tests := []struct {
		name string
		cron string
	}{
		{name: "garbage", cron: "not a cron"},
		// No schedule means no sweep; the archiver must not be
		// constructible without one.
		{name: "empty", cron: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := config.NewUserStore(t.TempDir())
			if _, err := NewArchiver(NewClient(), users, tt.cron); err == nil {
				t.Fatalf("NewArchiver() expected error for cron %q", tt.cron)
			}
		})
	}
}
