package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/status"
)

// stepPrecheck classifies the text content. Failure here is fatal: with
// no idea of the content shape, nothing downstream can proceed.
func (e *Engine) stepPrecheck(ctx context.Context, st State) State {
	e.progress(ctx, st, 0.2, "precheck", "Prechecking content...", "🔍")

	result, err := e.deps.Classifier.Analyze(ctx, st.TextContent)
	if err != nil {
		return e.fail(ctx, st, "precheck", err)
	}
	st.Precheck = &result

	e.progress(ctx, st, 0.3, "precheck", precheckStatusText(result), "✨")

	if result.ContainsURL {
		st.Next = StepURLSummary
	} else {
		st.Next = StepFormatContent
	}
	return st
}

func precheckStatusText(r PrecheckResult) string {
	switch {
	case r.ContainsURL && r.ContainsText:
		return "Detected URL and text content"
	case r.ContainsURL:
		return "Detected URL link"
	case r.ContainsText:
		return "Detected text content"
	default:
		return "No meaningful content detected"
	}
}

// stepURLSummary hands link-bearing text to the URL collaborator. The
// default implementation is a passthrough; either way the run continues
// into content formatting.
func (e *Engine) stepURLSummary(ctx context.Context, st State) State {
	e.progress(ctx, st, 0.4, "url_summary", "Processing URL...", "🔗")

	var urls []string
	if st.Precheck != nil {
		urls = st.Precheck.URLs
	}
	text, err := e.deps.URLs.Summarize(ctx, st.TextContent, urls)
	if err != nil {
		logger.WarnCF("workflow", "URL summary failed, continuing with original text", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		st.TextContent = text
	}

	st.Next = StepFormatContent
	return st
}

// stepFormatContent asks the formatter for a titled, tagged rendering.
func (e *Engine) stepFormatContent(ctx context.Context, st State) State {
	result, err := e.deps.Formatter.Format(ctx, st.TextContent, st.Background)
	if err != nil {
		return e.fail(ctx, st, "format_content", err)
	}

	st.FormatResult = &result
	st.Next = StepSaveNotion
	return st
}

// stepSaveNotion persists the composite note body. A failed save aborts
// task extraction but is reported with a note-specific error rather
// than crashing the run.
func (e *Engine) stepSaveNotion(ctx context.Context, st State) State {
	e.progress(ctx, st, 0.7, "save_notion", "💾 Saving to Notion...", "")

	if st.FormatResult == nil {
		return e.saveFailed(ctx, st, errors.New("empty format result"))
	}

	body := BuildNoteBody(st.TextContent, *st.FormatResult)

	page, err := e.deps.Notes.CreateNote(ctx, NoteParams{
		UserID:      st.Message.Metadata.UserID,
		RawContent:  st.TextContent,
		Content:     body,
		ContentType: contentTypeOrDefault(st.FormatResult.ContentType),
		Files:       st.MediaFiles,
		Source:      st.Message.Metadata.Platform,
		Tags:        st.FormatResult.Tags,
		Title:       st.FormatResult.Title,
		Summary:     st.FormatResult.Summary,
	})
	if err != nil {
		return e.saveFailed(ctx, st, err)
	}
	if page == nil {
		return e.saveFailed(ctx, st, errors.New("failed to save note"))
	}

	st.SaveSuccess = true
	st.NotionPage = page
	e.progress(ctx, st, 0.8, "save_notion", "Saved to Notion", "✅")

	if st.Precheck != nil && st.Precheck.ContainsText {
		st.Next = StepExtractTasks
	} else {
		// No text content: the run ends here with no terminal report.
		// The user keeps only the intermediate progress messages.
		st.Next = StepTerminal
	}
	return st
}

func (e *Engine) saveFailed(ctx context.Context, st State, err error) State {
	st = e.fail(ctx, st, "save_notion", err)
	st.SaveSuccess = false
	return st
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return "Uncategorized"
	}
	return ct
}

// stepExtractTasks finds to-do candidates in the content. Failure is
// fatal even though the note is already saved; the saved page survives
// but no report is produced.
func (e *Engine) stepExtractTasks(ctx context.Context, st State) State {
	e.progress(ctx, st, 0.95, "extract_tasks", "Extracting tasks...", "📌")

	profile, projectNames := parseBackground(st.Background)

	tasks, err := e.deps.Extractor.Extract(ctx, st.TextContent, profile, projectNames)
	if err != nil {
		return e.fail(ctx, st, "extract_tasks", fmt.Errorf("task extraction failed: %w", err))
	}

	st.Tasks = tasks
	st.Next = StepCreateTasks
	return st
}

// stepCreateTasks creates each extracted task, isolating per-item
// failures, then unconditionally builds and emits the terminal report.
// It is reached even when the task list is empty.
func (e *Engine) stepCreateTasks(ctx context.Context, st State) State {
	userID := st.Message.Metadata.UserID

	if len(st.Tasks) > 0 {
		e.progress(ctx, st, 0.98, "create_tasks", "Creating tasks...", "📋")

		projectMap := e.buildProjectMap(ctx, userID)

		for _, task := range st.Tasks {
			record := taskRecord{
				Title:       task.Title,
				ProjectName: task.ProjectName,
				DueDate:     task.DueDate,
				Priority:    task.Priority,
				Content:     task.Content,
			}

			projectID := projectMap[task.ProjectName]
			if projectID == "" && task.ProjectName != "" {
				logger.WarnCF("workflow", "Project not found for task", map[string]interface{}{
					"project": task.ProjectName,
					"title":   task.Title,
				})
				st.Outcomes = append(st.Outcomes, taskOutcome{
					Task: record,
					Kind: outcomeProjectNotFound,
					Note: task.ProjectName,
				})
				continue
			}

			params := TaskParams{
				Title:     task.Title,
				Content:   task.Content,
				ProjectID: projectID,
				Desc:      task.Desc,
				Priority:  task.Priority,
				IsAllDay:  task.IsAllDay,
				Reminders: task.Reminders,
			}
			if due, ok := parseDueDate(task.DueDate); ok {
				params.DueDate = &due
			}

			created, err := e.deps.Tasks.CreateTask(ctx, userID, params)
			if err != nil {
				logger.ErrorCF("workflow", "Failed to create task", map[string]interface{}{
					"title": task.Title,
					"error": err.Error(),
				})
				st.Outcomes = append(st.Outcomes, taskOutcome{
					Task: record,
					Kind: outcomeFailed,
					Note: InnermostError(err),
				})
				continue
			}
			if created == nil {
				st.Outcomes = append(st.Outcomes, taskOutcome{
					Task: record,
					Kind: outcomeFailed,
					Note: "task backend returned nothing",
				})
				continue
			}

			st.Outcomes = append(st.Outcomes, taskOutcome{Task: record, Kind: outcomeCreated})
			logger.InfoCF("workflow", "Task created", map[string]interface{}{
				"title":   task.Title,
				"task_id": created.ID,
			})
		}
	}

	// The report is built regardless of per-item outcomes, and also when
	// no tasks were extracted at all.
	report := buildReport(st)
	e.deps.Status.Update(ctx, st.Status, status.Update{
		Step:         "completed",
		Description:  report,
		ShowProgress: false,
	})

	st.Next = StepTerminal
	return st
}

// buildProjectMap resolves the user's project list into a name→id map,
// rebuilt fresh per run so stale projects are never served.
func (e *Engine) buildProjectMap(ctx context.Context, userID string) map[string]string {
	projects, err := e.deps.Projects.ListProjects(ctx, userID)
	if err != nil {
		logger.WarnCF("workflow", "Failed to list projects, task projects will not resolve", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return map[string]string{}
	}

	m := make(map[string]string, len(projects))
	for _, p := range projects {
		if p.Name != "" && p.ID != "" {
			m[p.Name] = p.ID
		}
	}
	return m
}

func parseDueDate(due string) (time.Time, bool) {
	if due == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, due)
	if err != nil {
		logger.WarnCF("workflow", "Unparseable due date on task", map[string]interface{}{
			"due_date": due,
			"error":    err.Error(),
		})
		return time.Time{}, false
	}
	return t, true
}
