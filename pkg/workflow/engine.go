// Package workflow runs the note-taking state machine for one inbound
// message: precheck, optional URL handling, content formatting, note
// persistence, task extraction and task creation, narrating progress
// through the status channel at every milestone.
package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/status"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/utils"
)

// Deps are the collaborators one engine needs. All of them must be safe
// for concurrent use: a single engine serves every worker in the pool.
type Deps struct {
	Classifier ContentClassifier
	Formatter  ContentFormatter
	Extractor  TaskExtractor
	Notes      NoteStore
	Tasks      TaskStore
	Projects   ProjectDirectory
	URLs       URLSummarizer
	Users      *config.UserStore
	Status     *status.Channel
}

type Engine struct {
	deps Deps
}

func NewEngine(deps Deps) *Engine {
	if deps.URLs == nil {
		deps.URLs = NoopURLSummarizer{}
	}
	return &Engine{deps: deps}
}

// Run processes one message end-to-end. The returned error reflects the
// run's terminal error state; all user-visible reporting has already
// happened through the status channel by the time Run returns.
func (e *Engine) Run(ctx context.Context, msg message.Message) error {
	userID := msg.Metadata.UserID

	uc, err := e.deps.Users.Get(userID)
	if err != nil {
		logger.WarnCF("workflow", "Failed to load user config, using defaults", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		uc = &config.UserConfig{}
	}

	handle, err := e.deps.Status.Begin(ctx, msg)
	if err != nil {
		logger.WarnCF("workflow", "Failed to create status message", map[string]interface{}{
			"chat_id": msg.Metadata.ChatID,
			"error":   err.Error(),
		})
	}

	st := State{
		Message:     msg,
		TextContent: msg.Text,
		MediaFiles:  msg.Files,
		Background:  BuildBackground(uc),
		Status:      handle,
		Next:        StepPrecheck,
	}

	logger.InfoCF("workflow", "Run started", map[string]interface{}{
		"message_id": msg.Metadata.MessageID,
		"user_id":    userID,
		"kind":       string(msg.Kind),
		"preview":    utils.Truncate(msg.Text, 60),
	})

	for st.Next != StepTerminal {
		step := st.Next
		switch step {
		case StepPrecheck:
			st = e.stepPrecheck(ctx, st)
		case StepURLSummary:
			st = e.stepURLSummary(ctx, st)
		case StepFormatContent:
			st = e.stepFormatContent(ctx, st)
		case StepSaveNotion:
			st = e.stepSaveNotion(ctx, st)
		case StepExtractTasks:
			st = e.stepExtractTasks(ctx, st)
		case StepCreateTasks:
			st = e.stepCreateTasks(ctx, st)
		default:
			logger.ErrorCF("workflow", "Unknown step, aborting run", map[string]interface{}{
				"step": step.String(),
			})
			st.Next = StepTerminal
		}
		logger.DebugCF("workflow", "Step finished", map[string]interface{}{
			"step": step.String(),
			"next": st.Next.String(),
		})
	}

	if st.ErrorMessage != "" {
		logger.WarnCF("workflow", "Run finished with error", map[string]interface{}{
			"message_id": msg.Metadata.MessageID,
			"error":      st.ErrorMessage,
		})
		return errors.New(st.ErrorMessage)
	}

	logger.InfoCF("workflow", "Run finished", map[string]interface{}{
		"message_id": msg.Metadata.MessageID,
		"saved":      st.SaveSuccess,
		"tasks":      len(st.Tasks),
	})
	return nil
}

// progress emits a bar-style status update for a step milestone.
func (e *Engine) progress(ctx context.Context, st State, p float64, step, description, emoji string) {
	e.deps.Status.Update(ctx, st.Status, status.Update{
		Progress:     &p,
		Step:         step,
		Description:  description,
		Emoji:        emoji,
		ShowProgress: true,
	})
}

// fail records a fatal step error, surfaces it to the user and routes
// the run to the terminal state. No report follows a failed run.
func (e *Engine) fail(ctx context.Context, st State, step string, err error) State {
	msg := InnermostError(err)
	st.ErrorMessage = msg
	st.Next = StepTerminal
	e.deps.Status.Update(ctx, st.Status, status.Update{
		Step:         step,
		Description:  "❌ " + msg,
		ShowProgress: false,
	})
	return st
}

// InnermostError reduces a wrapped "outer: inner" chain to its innermost
// segment, which is what the user sees.
func InnermostError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		msg = msg[idx+2:]
	}
	return strings.TrimSpace(msg)
}
