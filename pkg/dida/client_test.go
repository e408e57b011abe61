package dida

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

func connectedUserStore(t *testing.T) *config.UserStore {
	t.Helper()
	users := config.NewUserStore(t.TempDir())
	err := users.Put("user-1", &config.UserConfig{
		DidaToken: &config.DidaToken{
			AccessToken: "token-1",
			TokenType:   "Bearer",
			Expiry:      time.Now().Add(time.Hour),
		},
	})
	if err != nil {
		t.Fatalf("seed user config: %v", err)
	}
	return users
}

func testClient(users *config.UserStore, baseURL string) *Client {
	oauth := OAuthConfig(config.DidaConfig{ClientID: "cid", ClientSecret: "secret"}, "")
	return NewClient(oauth, users).WithBaseURL(baseURL)
}

func TestCreateTask(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/task" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":        "task-1",
			"projectId": "proj-1",
		})
	}))
	defer server.Close()

	client := testClient(connectedUserStore(t), server.URL)

	due := time.Date(2026, 3, 21, 15, 0, 0, 0, time.UTC)
	ref, err := client.CreateTask(context.Background(), "user-1", workflow.TaskParams{
		Title:     "Buy milk",
		Content:   "two bottles",
		ProjectID: "proj-1",
		DueDate:   &due,
		Priority:  3,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if ref == nil || ref.ID != "task-1" || ref.ProjectID != "proj-1" {
		t.Fatalf("CreateTask() ref = %+v", ref)
	}

	if captured["title"] != "Buy milk" {
		t.Errorf("title = %v", captured["title"])
	}
	if captured["dueDate"] != "2026-03-21T15:00:00+0000" {
		t.Errorf("dueDate = %v, want offset without colon", captured["dueDate"])
	}
	if captured["priority"] != float64(3) {
		t.Errorf("priority = %v", captured["priority"])
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	client := testClient(connectedUserStore(t), "http://unused")
	if _, err := client.CreateTask(context.Background(), "user-1", workflow.TaskParams{}); err == nil {
		t.Fatalf("CreateTask() expected error for missing title")
	}
}

func TestCreateTaskWithoutConnection(t *testing.T) {
	users := config.NewUserStore(t.TempDir())
	client := testClient(users, "http://unused")

	_, err := client.CreateTask(context.Background(), "user-1", workflow.TaskParams{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("CreateTask() error = %v, want not-connected", err)
	}
}

func TestListProjectsSortsByDisplayOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "p2", "name": "Work", "sortOrder": 200},
			{"id": "p1", "name": "Inbox", "sortOrder": 100},
		})
	}))
	defer server.Close()

	client := testClient(connectedUserStore(t), server.URL)

	projects, err := client.ListProjects(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Inbox" || projects[1].Name != "Work" {
		t.Fatalf("ListProjects() = %+v, want sorted by sortOrder", projects)
	}
}

func TestSyncCatalogStoresProjectsAndTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": "p1", "name": "Inbox", "sortOrder": 1},
			})
		case "/tags":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"name": "errand"},
				{"name": "focus"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	users := connectedUserStore(t)
	client := testClient(users, server.URL)

	if err := client.SyncCatalog(context.Background(), "user-1"); err != nil {
		t.Fatalf("SyncCatalog() error = %v", err)
	}

	uc, err := users.Get("user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(uc.DidaProjects) != 1 || uc.DidaProjects[0].ID != "p1" {
		t.Fatalf("stored projects = %+v", uc.DidaProjects)
	}
	if len(uc.DidaTags) != 2 {
		t.Fatalf("stored tags = %+v", uc.DidaTags)
	}
}
