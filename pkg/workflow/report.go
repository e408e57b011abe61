package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/utils"
)

const reportContentMax = 40

// BuildNoteBody assembles the composite document stored in the note
// backend: the original text, the formatted rendering, the summary and
// the tags, in that order.
func BuildNoteBody(textContent string, result FormatResult) string {
	content := result.Content
	if content == "" {
		content = textContent
	}

	tagLine := "No tags"
	if len(result.Tags) > 0 {
		tagLine = strings.Join(result.Tags, ", ")
	}

	sections := []string{
		"📝 Original content:",
		textContent,
		"",
		"✨ Formatted content:",
		content,
		"",
		"📋 Summary:",
		result.Summary,
		"",
		"🏷️ Tags:",
		tagLine,
	}
	return strings.Join(sections, "\n")
}

// buildReport renders the terminal tree-formatted summary: the note
// section first, then one entry per task outcome, or an explicit "no
// tasks" line when extraction found nothing.
func buildReport(st State) string {
	var lines []string

	lines = append(lines, "✨ Processing complete", "")

	if st.SaveSuccess && st.FormatResult != nil {
		lines = append(lines, "├─ 📝 Note")
		lines = append(lines, "│  ├─ ✅ Saved to Notion")
		if st.FormatResult.Title != "" {
			lines = append(lines, fmt.Sprintf("│  ├─ 📌 %s", st.FormatResult.Title))
		}
		lines = append(lines, fmt.Sprintf("│  ├─ 📑 Category: #%s", contentTypeOrDefault(st.FormatResult.ContentType)))
		if len(st.FormatResult.Tags) > 0 {
			formatted := make([]string, 0, len(st.FormatResult.Tags))
			for _, tag := range st.FormatResult.Tags {
				formatted = append(formatted, "#"+tag)
			}
			lines = append(lines, fmt.Sprintf("│  └─ 🏷️ Tags: %s", strings.Join(formatted, " ")))
		} else {
			lines = append(lines, "│  └─ 🏷️ No tags")
		}
	}

	lines = append(lines, "")
	if len(st.Outcomes) > 0 {
		lines = append(lines, fmt.Sprintf("├─ 📋 Tasks (%d)", len(st.Outcomes)))
		for i, outcome := range st.Outcomes {
			last := i == len(st.Outcomes)-1
			lines = append(lines, formatTaskOutcome(i+1, outcome, last)...)
			if !last {
				lines = append(lines, "│")
			}
		}
	} else {
		lines = append(lines, "└─ 📋 No tasks detected")
	}

	lines = append(lines, "", "· · · · · ·")
	return strings.Join(lines, "\n")
}

func formatTaskOutcome(index int, outcome taskOutcome, last bool) []string {
	prefix := "├─"
	detailIndent := "│  "
	if last {
		prefix = "└─"
		detailIndent = "   "
	}

	task := outcome.Task

	var title string
	switch outcome.Kind {
	case outcomeCreated:
		title = fmt.Sprintf("│  %s %d. ✅ %s", prefix, index, task.Title)
	case outcomeProjectNotFound:
		title = fmt.Sprintf("│  %s %d. ⚠️ %s (project not found: %s)", prefix, index, task.Title, outcome.Note)
	default:
		title = fmt.Sprintf("│  %s %d. ❌ %s: %s", prefix, index, task.Title, outcome.Note)
	}
	lines := []string{title}

	var details []string
	if task.ProjectName != "" && outcome.Kind == outcomeCreated {
		details = append(details, fmt.Sprintf("📁 %s", task.ProjectName))
	}
	if task.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, task.DueDate); err == nil {
			details = append(details, fmt.Sprintf("⏰ %s", due.Format("2006-01-02 15:04")))
		}
	}
	if label := priorityLabel(task.Priority); label != "" {
		details = append(details, fmt.Sprintf("🔥 %s priority", label))
	}
	if task.Content != "" {
		details = append(details, fmt.Sprintf("📝 %s", utils.Truncate(task.Content, reportContentMax)))
	}

	for i, d := range details {
		connector := "├─"
		if i == len(details)-1 {
			connector = "└─"
		}
		lines = append(lines, fmt.Sprintf("│  %s%s %s", detailIndent, connector, d))
	}

	return lines
}

func priorityLabel(priority int) string {
	switch priority {
	case 1:
		return "Low"
	case 3:
		return "Medium"
	case 5:
		return "High"
	default:
		return ""
	}
}
