// Package notion persists notes as pages of a per-user Notion database
// and keeps that database's schema in shape.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// Client is a thin wrapper over the Notion REST API. One client serves
// every user; the per-user API key travels with each call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL redirects the client, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, apiKey, method, path string, body, out interface{}) error {
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
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("notion api: %s", apiErr.Message)
		}
		return fmt.Errorf("notion api: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// page is the slice of a Notion page object this package cares about.
type page struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	CreatedTime time.Time `json:"created_time"`
	Archived    bool      `json:"archived"`
}

func (c *Client) createPage(ctx context.Context, apiKey, databaseID string, properties map[string]interface{}, children []map[string]interface{}) (*page, error) {
	body := map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": databaseID},
		"properties": properties,
	}
	if len(children) > 0 {
		body["children"] = children
	}

	var p page
	if err := c.do(ctx, apiKey, http.MethodPost, "/pages", body, &p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &p, nil
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

func (c *Client) queryDatabase(ctx context.Context, apiKey, databaseID string, filter map[string]interface{}) ([]page, error) {
	var results []page
	cursor := ""

	for {
		body := map[string]interface{}{"page_size": 100}
		if filter != nil {
			body["filter"] = filter
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var resp queryResponse
		if err := c.do(ctx, apiKey, http.MethodPost, "/databases/"+databaseID+"/query", body, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		results = append(results, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	logger.DebugCF("notion", "Database queried", map[string]interface{}{
		"database_id": databaseID,
		"results":     len(results),
	})
	return results, nil
}

func (c *Client) archivePage(ctx context.Context, apiKey, pageID string) error {
	body := map[string]interface{}{"archived": true}
	if err := c.do(ctx, apiKey, http.MethodPatch, "/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("archive page: %w", err)
	}
	return nil
}

type database struct {
	ID         string                 `json:"id"`
	Properties map[string]interface{} `json:"properties"`
}

func (c *Client) getDatabase(ctx context.Context, apiKey, databaseID string) (*database, error) {
	var db database
	if err := c.do(ctx, apiKey, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}
	return &db, nil
}

func (c *Client) updateDatabase(ctx context.Context, apiKey, databaseID string, properties map[string]interface{}) error {
	body := map[string]interface{}{"properties": properties}
	if err := c.do(ctx, apiKey, http.MethodPatch, "/databases/"+databaseID, body, nil); err != nil {
		return fmt.Errorf("update database: %w", err)
	}
	return nil
}
