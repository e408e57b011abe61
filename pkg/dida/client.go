package dida

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"golang.org/x/oauth2"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

const defaultBaseURL = "https://api.dida365.com/open/v1"

// The Open API wants offsets without a colon.
const dueDateLayout = "2006-01-02T15:04:05-0700"

// Client implements the workflow's task store and project directory on
// top of the Dida365 Open API. One client serves every user; tokens are
// loaded per call and refreshed through the user store.
type Client struct {
	oauth   *oauth2.Config
	users   *config.UserStore
	baseURL string
}

func NewClient(oauth *oauth2.Config, users *config.UserStore) *Client {
	return &Client{
		oauth:   oauth,
		users:   users,
		baseURL: defaultBaseURL,
	}
}

// WithBaseURL redirects the client, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// httpClientFor builds an authenticated client for userID. The oauth2
// transport refreshes expired tokens on the fly; refreshed tokens are
// written back to the user store.
func (c *Client) httpClientFor(ctx context.Context, userID string) (*http.Client, error) {
	uc, err := c.users.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	if uc.DidaToken == nil || uc.DidaToken.AccessToken == "" {
		return nil, errors.New("Dida365 not connected")
	}

	tok := toOAuthToken(uc.DidaToken)
	src := &persistingSource{
		users:  c.users,
		userID: userID,
		last:   tok.AccessToken,
		src:    c.oauth.TokenSource(ctx, tok),
	}
	return oauth2.NewClient(ctx, src), nil
}

func (c *Client) do(ctx context.Context, userID, method, path string, body, out interface{}) error {
	httpClient, err := c.httpClientFor(ctx, userID)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dida request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("dida api: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateTask creates one to-do task for the user.
func (c *Client) CreateTask(ctx context.Context, userID string, params workflow.TaskParams) (*workflow.TaskRef, error) {
	if params.Title == "" {
		return nil, errors.New("task title is required")
	}

	body := map[string]interface{}{"title": params.Title}
	if params.Content != "" {
		body["content"] = params.Content
	}
	if params.Desc != "" {
		body["desc"] = params.Desc
	}
	if params.ProjectID != "" {
		body["projectId"] = params.ProjectID
	}
	if params.DueDate != nil {
		body["dueDate"] = params.DueDate.Format(dueDateLayout)
		body["isAllDay"] = params.IsAllDay
	}
	if params.Priority != 0 {
		body["priority"] = params.Priority
	}
	if len(params.Reminders) > 0 {
		body["reminders"] = params.Reminders
	}

	var created struct {
		ID        string `json:"id"`
		ProjectID string `json:"projectId"`
	}
	if err := c.do(ctx, userID, http.MethodPost, "/task", body, &created); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	logger.InfoCF("dida", "Task created", map[string]interface{}{
		"user_id": userID,
		"task_id": created.ID,
		"title":   params.Title,
	})
	return &workflow.TaskRef{ID: created.ID, ProjectID: created.ProjectID}, nil
}

type apiProject struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SortOrder float64 `json:"sortOrder"`
}

// ListProjects fetches the user's projects in display order.
func (c *Client) ListProjects(ctx context.Context, userID string) ([]config.Project, error) {
	var projects []apiProject
	if err := c.do(ctx, userID, http.MethodGet, "/project", nil, &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].SortOrder < projects[j].SortOrder
	})

	out := make([]config.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, config.Project{Name: p.Name, ID: p.ID})
	}
	return out, nil
}

// SyncCatalog refreshes the stored copy of the user's projects and tags.
// The stored copy feeds the extraction background; live project ids are
// still fetched fresh at task creation time.
func (c *Client) SyncCatalog(ctx context.Context, userID string) error {
	projects, err := c.ListProjects(ctx, userID)
	if err != nil {
		return err
	}

	var tags []struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, userID, http.MethodGet, "/tags", nil, &tags); err != nil {
		logger.WarnCF("dida", "Failed to fetch tags, keeping stored ones", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		tags = nil
	}

	uc, err := c.users.Get(userID)
	if err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	uc.DidaProjects = projects
	if tags != nil {
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.Name)
		}
		uc.DidaTags = names
	}
	if err := c.users.Put(userID, uc); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}

	logger.InfoCF("dida", "Catalog synced", map[string]interface{}{
		"user_id":  userID,
		"projects": len(projects),
		"tags":     len(uc.DidaTags),
	})
	return nil
}
