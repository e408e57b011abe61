package workflow

import (
	"context"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
)

// PrecheckResult is what the classifier learned about the message text.
type PrecheckResult struct {
	ContainsURL  bool     `json:"contains_url"`
	ContainsText bool     `json:"contains_text"`
	URLs         []string `json:"urls,omitempty"`
}

// FormatResult is the formatter's structured rendering of the content.
type FormatResult struct {
	ContentType string   `json:"content_type"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
}

// ExtractedTask is one to-do candidate found in the content. ProjectName
// is the user-facing project name; resolution to a backend id happens
// during task creation.
type ExtractedTask struct {
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Desc        string   `json:"desc,omitempty"`
	ProjectName string   `json:"projectId,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"` // ISO-8601 with offset
	Priority    int      `json:"priority,omitempty"` // 0 none, 1 low, 3 medium, 5 high
	IsAllDay    bool     `json:"isAllDay,omitempty"`
	Reminders   []string `json:"reminders,omitempty"`
}

// PageRef points at a created note page.
type PageRef struct {
	ID  string
	URL string
}

// TaskRef points at a created to-do task.
type TaskRef struct {
	ID        string
	ProjectID string
}

// NoteParams carries everything the note backend needs to persist one note.
type NoteParams struct {
	UserID      string
	RawContent  string
	Content     string
	ContentType string
	Files       []message.Attachment
	Source      string
	Tags        []string
	Title       string
	Summary     string
}

// TaskParams carries one resolved task for the to-do backend.
type TaskParams struct {
	Title     string
	Content   string
	ProjectID string
	Desc      string
	DueDate   *time.Time
	Priority  int
	IsAllDay  bool
	Reminders []string
}

// ContentClassifier decides what shape the inbound text has.
type ContentClassifier interface {
	Analyze(ctx context.Context, text string) (PrecheckResult, error)
}

// ContentFormatter turns raw text into a titled, tagged note body.
type ContentFormatter interface {
	Format(ctx context.Context, content, background string) (FormatResult, error)
}

// TaskExtractor finds actionable to-do items in the content.
type TaskExtractor interface {
	Extract(ctx context.Context, content, profile string, projectNames []string) ([]ExtractedTask, error)
}

// NoteStore persists notes. A nil PageRef with nil error is treated as
// a save failure by the engine.
type NoteStore interface {
	CreateNote(ctx context.Context, params NoteParams) (*PageRef, error)
}

// TaskStore creates to-do tasks in the external backend.
type TaskStore interface {
	CreateTask(ctx context.Context, userID string, params TaskParams) (*TaskRef, error)
}

// ProjectDirectory lists the user's configured to-do projects. The
// listing is fetched fresh for every run; projects can change between
// requests.
type ProjectDirectory interface {
	ListProjects(ctx context.Context, userID string) ([]config.Project, error)
}

// URLSummarizer handles link-bearing messages before formatting. The
// default implementation is a passthrough.
type URLSummarizer interface {
	Summarize(ctx context.Context, text string, urls []string) (string, error)
}

// NoopURLSummarizer returns the text unchanged.
type NoopURLSummarizer struct{}

func (NoopURLSummarizer) Summarize(_ context.Context, text string, _ []string) (string, error) {
	return text, nil
}
