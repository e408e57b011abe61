package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

// Analyze classifies raw content: does it carry links, does it carry
// meaningful text, and which links.
func (c *Client) Analyze(ctx context.Context, content string) (workflow.PrecheckResult, error) {
	raw, err := c.chat(ctx, precheckSystemPrompt, content)
	if err != nil {
		return workflow.PrecheckResult{}, fmt.Errorf("precheck: %w", err)
	}

	var result struct {
		ContainsURL  bool     `json:"contains_url"`
		ContainsText bool     `json:"contains_text"`
		URLs         []string `json:"urls"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return workflow.PrecheckResult{}, fmt.Errorf("precheck: parse response: %w", err)
	}

	return workflow.PrecheckResult{
		ContainsURL:  result.ContainsURL,
		ContainsText: result.ContainsText,
		URLs:         result.URLs,
	}, nil
}

// Format reworks raw content into a titled, tagged note rendering. The
// background JSON gives the model the user's profile and tag vocabulary.
func (c *Client) Format(ctx context.Context, content, background string) (workflow.FormatResult, error) {
	user := content
	if background != "" {
		user = fmt.Sprintf("User background:\n%s\n\nContent:\n%s", background, content)
	}

	raw, err := c.chat(ctx, formatSystemPrompt, user)
	if err != nil {
		return workflow.FormatResult{}, fmt.Errorf("format content: %w", err)
	}

	payload, ok := extractTagged(raw, "json")
	if !ok {
		// Some models drop the tags but still answer with bare JSON.
		payload = extractJSONObject(raw)
	}

	var result struct {
		ContentType string   `json:"content_type"`
		Title       string   `json:"title"`
		Summary     string   `json:"summary"`
		Content     string   `json:"content"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return workflow.FormatResult{}, fmt.Errorf("format content: parse response: %w", err)
	}

	return workflow.FormatResult{
		ContentType: result.ContentType,
		Title:       result.Title,
		Summary:     result.Summary,
		Content:     result.Content,
		Tags:        result.Tags,
	}, nil
}

// Extract finds actionable tasks in the content. projectNames limits
// which projects the model may assign.
func (c *Client) Extract(ctx context.Context, content, profile string, projectNames []string) ([]workflow.ExtractedTask, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current time: %s\n", time.Now().Format(time.RFC3339))
	if profile != "" {
		fmt.Fprintf(&sb, "User profile: %s\n", profile)
	}
	if len(projectNames) > 0 {
		fmt.Fprintf(&sb, "User projects: %s\n", strings.Join(projectNames, ", "))
	}
	fmt.Fprintf(&sb, "\nContent:\n%s", content)

	raw, err := c.chat(ctx, extractSystemPrompt, sb.String())
	if err != nil {
		return nil, fmt.Errorf("extract tasks: %w", err)
	}

	payload, ok := extractTagged(raw, "tasks")
	if !ok {
		payload = extractJSONArray(raw)
	}
	if payload == "" {
		logger.WarnCF("llm", "Task extraction returned no parseable payload", map[string]interface{}{
			"preview": preview(raw),
		})
		return nil, nil
	}

	var tasks []workflow.ExtractedTask
	if err := json.Unmarshal([]byte(payload), &tasks); err != nil {
		return nil, fmt.Errorf("extract tasks: parse response: %w", err)
	}

	// Untitled entries are model noise, not tasks.
	out := tasks[:0]
	for _, task := range tasks {
		if strings.TrimSpace(task.Title) != "" {
			out = append(out, task)
		}
	}
	return out, nil
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
