package config

import (
	"testing"
	"time"
)

func TestUserStoreUnknownUser(t *testing.T) {
	store := NewUserStore(t.TempDir())

	uc, err := store.Get("nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if uc == nil || uc.Profile != "" || uc.NotionAPIKey != "" {
		t.Fatalf("Get() for unknown user = %+v, want empty config", uc)
	}
}

func TestUserStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewUserStore(dir)

	in := &UserConfig{
		Profile:          "a profile",
		NotionAPIKey:     "key",
		NotionDatabaseID: "db",
		DidaProjects:     []Project{{Name: "Work", ID: "p1"}},
		DidaTags:         []string{"focus"},
	}
	if err := store.Put("u1", in); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Fresh store forces a read from disk.
	out, err := NewUserStore(dir).Get("u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Profile != in.Profile || out.NotionDatabaseID != in.NotionDatabaseID {
		t.Fatalf("Get() = %+v", out)
	}
	if len(out.DidaProjects) != 1 || out.DidaProjects[0].Name != "Work" {
		t.Fatalf("projects = %+v", out.DidaProjects)
	}
}

func TestUserStoreGetReturnsCopy(t *testing.T) {
	store := NewUserStore(t.TempDir())
	if err := store.Put("u1", &UserConfig{Profile: "original"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	first, _ := store.Get("u1")
	first.Profile = "mutated"

	second, _ := store.Get("u1")
	if second.Profile != "original" {
		t.Fatalf("mutation leaked into store: %q", second.Profile)
	}
}

func TestSetDidaToken(t *testing.T) {
	store := NewUserStore(t.TempDir())
	if err := store.Put("u1", &UserConfig{Profile: "keep me"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tok := &DidaToken{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := store.SetDidaToken("u1", tok); err != nil {
		t.Fatalf("SetDidaToken() error = %v", err)
	}

	uc, err := store.Get("u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if uc.DidaToken == nil || uc.DidaToken.AccessToken != "at" {
		t.Fatalf("token = %+v", uc.DidaToken)
	}
	if uc.Profile != "keep me" {
		t.Fatalf("profile lost on token update: %q", uc.Profile)
	}
}

func TestListUsers(t *testing.T) {
	store := NewUserStore(t.TempDir())

	ids, err := store.ListUsers()
	if err != nil || len(ids) != 0 {
		t.Fatalf("ListUsers() on empty store = %v, %v", ids, err)
	}

	for _, id := range []string{"u1", "u2"} {
		if err := store.Put(id, &UserConfig{}); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	ids, err = store.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListUsers() = %v, want 2 users", ids)
	}
}

func TestListUsersMissingDir(t *testing.T) {
	store := NewUserStore("/does/not/exist")
	ids, err := store.ListUsers()
	if err != nil || ids != nil {
		t.Fatalf("ListUsers() on missing dir = %v, %v, want empty and nil error", ids, err)
	}
}
