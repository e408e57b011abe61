// Package status narrates the progress of one in-flight workflow run.
// A Channel creates a single transport message as a reply to the user's
// original message and edits that same message in place for every
// subsequent update, up to and including the terminal report.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
)

// Sink is the transport side of the status channel. Implemented by the
// chat adapter; the core never talks to the platform directly.
type Sink interface {
	// CreateStatus sends a new message in chat as a reply to
	// replyToMessageID and returns the new message's id.
	CreateStatus(ctx context.Context, chatID, text, replyToMessageID string) (string, error)
	// EditStatus replaces the text of a previously created status message.
	EditStatus(ctx context.Context, chatID, messageID, text string) error
}

// Update is one progress notification. Progress is in [0,1]; nil means
// "no progress bar" (terminal reports and error text). Progress values
// within one run are expected to be non-decreasing by convention.
type Update struct {
	Progress     *float64
	Step         string
	Description  string
	Emoji        string
	ShowProgress bool
}

// Handle identifies the live status message of one run.
type Handle struct {
	ChatID    string
	MessageID string
}

type Channel struct {
	sink Sink
}

func NewChannel(sink Sink) *Channel {
	return &Channel{sink: sink}
}

// Begin creates the status message for a run, bound to the originating
// message as a reply. A nil handle with nil error means the transport
// refused the message; the run proceeds silently.
func (c *Channel) Begin(ctx context.Context, msg message.Message) (*Handle, error) {
	text := FormatStatusText(ptr(0.1), "Starting", "🚀")
	id, err := c.sink.CreateStatus(ctx, msg.Metadata.ChatID, text, msg.Metadata.MessageID)
	if err != nil {
		return nil, fmt.Errorf("create status message: %w", err)
	}
	return &Handle{ChatID: msg.Metadata.ChatID, MessageID: id}, nil
}

// Update edits the run's status message in place. Failures are logged
// and swallowed: a broken progress display must never abort processing.
func (c *Channel) Update(ctx context.Context, h *Handle, u Update) {
	if h == nil {
		return
	}

	progress := u.Progress
	if !u.ShowProgress {
		progress = nil
	}
	text := FormatStatusText(progress, u.Description, u.Emoji)

	if err := c.sink.EditStatus(ctx, h.ChatID, h.MessageID, text); err != nil {
		logger.WarnCF("status", "Failed to edit status message", map[string]interface{}{
			"chat_id":    h.ChatID,
			"message_id": h.MessageID,
			"error":      err.Error(),
		})
	}
}

const barLength = 20

var knownEmoji = []string{"🔄", "🎤", "🔍", "🤖", "✨", "💾", "✅", "❌", "📋", "📌", "🚀", "⚠️"}

// FormatStatusText renders a status update. With a progress value the
// result is a description line followed by a block-character bar and a
// percentage; without one the description is rendered verbatim.
func FormatStatusText(progress *float64, description, emoji string) string {
	desc := description
	if emoji != "" && !hasEmoji(description) {
		desc = emoji + " " + description
	}

	if progress == nil {
		return desc
	}

	p := *progress
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	filled := int(p * barLength)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)
	return fmt.Sprintf("%s\n%s %3d%%", desc, bar, int(p*100))
}

func hasEmoji(s string) bool {
	for _, e := range knownEmoji {
		if strings.Contains(s, e) {
			return true
		}
	}
	return false
}

func ptr(f float64) *float64 { return &f }
