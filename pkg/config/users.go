package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Project is one configured to-do project (backend id plus the name the
// user refers to it by).
type Project struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// DidaToken is the stored OAuth token for the to-do backend.
type DidaToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// UserConfig holds one user's settings: free-form profile text plus the
// per-user credentials and catalog data for the note and task backends.
type UserConfig struct {
	Profile string `json:"profile"`

	NotionAPIKey     string `json:"notion_api_key"`
	NotionDatabaseID string `json:"notion_database_id"`

	DidaToken    *DidaToken `json:"dida_token,omitempty"`
	DidaProjects []Project  `json:"dida_projects"`
	DidaTags     []string   `json:"dida_tags"`
}

// UserStore persists per-user configuration as one JSON file per user.
// Reads are served from an in-memory cache; the store is safe for
// concurrent use by independent workflow runs.
type UserStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*UserConfig
}

func NewUserStore(dir string) *UserStore {
	return &UserStore{
		dir:   dir,
		cache: make(map[string]*UserConfig),
	}
}

func (s *UserStore) path(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

// Get returns the stored config for userID, or an empty config when the
// user has never been configured.
func (s *UserStore) Get(userID string) (*UserConfig, error) {
	s.mu.RLock()
	if uc, ok := s.cache[userID]; ok {
		s.mu.RUnlock()
		copied := *uc
		return &copied, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("read user config: %w", err)
	}

	uc := &UserConfig{}
	if err := json.Unmarshal(data, uc); err != nil {
		return nil, fmt.Errorf("parse user config %s: %w", userID, err)
	}

	s.mu.Lock()
	s.cache[userID] = uc
	s.mu.Unlock()

	copied := *uc
	return &copied, nil
}

func (s *UserStore) Put(userID string, uc *UserConfig) error {
	data, err := json.MarshalIndent(uc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(userID), data, 0600); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}

	copied := *uc
	s.mu.Lock()
	s.cache[userID] = &copied
	s.mu.Unlock()
	return nil
}

// ListUsers returns the ids of every user with a stored config file.
func (s *UserStore) ListUsers() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list user configs: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// SetDidaToken replaces the stored OAuth token for userID. Used by the
// task backend client after a token refresh.
func (s *UserStore) SetDidaToken(userID string, tok *DidaToken) error {
	uc, err := s.Get(userID)
	if err != nil {
		return err
	}
	uc.DidaToken = tok
	return s.Put(userID, uc)
}
