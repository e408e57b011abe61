package status

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
)

type recordingSink struct {
	created []string
	edits   []string
	reply   string
	err     error
}

func (s *recordingSink) CreateStatus(ctx context.Context, chatID, text, replyTo string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.created = append(s.created, text)
	s.reply = replyTo
	return "mid-1", nil
}

func (s *recordingSink) EditStatus(ctx context.Context, chatID, messageID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.edits = append(s.edits, text)
	return nil
}

func TestFormatStatusText(t *testing.T) {
	tests := []struct {
		name        string
		progress    *float64
		description string
		emoji       string
		want        []string
		wantExact   string
	}{
		{
			name:        "no progress renders description only",
			description: "done",
			emoji:       "✅",
			wantExact:   "✅ done",
		},
		{
			name:        "zero progress renders empty bar",
			progress:    ptr(0),
			description: "starting",
			emoji:       "🚀",
			want:        []string{"🚀 starting", strings.Repeat("░", 20), "  0%"},
		},
		{
			name:        "half progress",
			progress:    ptr(0.5),
			description: "working",
			emoji:       "🔄",
			want:        []string{strings.Repeat("█", 10) + strings.Repeat("░", 10), " 50%"},
		},
		{
			name:        "full progress",
			progress:    ptr(1),
			description: "done",
			emoji:       "✅",
			want:        []string{strings.Repeat("█", 20), "100%"},
		},
		{
			name:        "progress above one is clamped",
			progress:    ptr(1.7),
			description: "over",
			emoji:       "🔄",
			want:        []string{strings.Repeat("█", 20), "100%"},
		},
		{
			name:        "negative progress is clamped",
			progress:    ptr(-0.5),
			description: "under",
			emoji:       "🔄",
			want:        []string{strings.Repeat("░", 20), "  0%"},
		},
		{
			name:        "emoji not duplicated when description has one",
			description: "💾 Saving to Notion...",
			emoji:       "🔄",
			wantExact:   "💾 Saving to Notion...",
		},
		{
			name:        "no emoji prefix when emoji empty",
			description: "plain",
			wantExact:   "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatusText(tt.progress, tt.description, tt.emoji)
			if tt.wantExact != "" && got != tt.wantExact {
				t.Fatalf("FormatStatusText() = %q, want %q", got, tt.wantExact)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatStatusText() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestBeginCreatesReplyAtTenPercent(t *testing.T) {
	sink := &recordingSink{}
	ch := NewChannel(sink)

	msg := message.Message{Metadata: message.Metadata{ChatID: "c1", MessageID: "m42"}}
	handle, err := ch.Begin(context.Background(), msg)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if handle == nil || handle.ChatID != "c1" || handle.MessageID != "mid-1" {
		t.Fatalf("Begin() handle = %+v", handle)
	}
	if sink.reply != "m42" {
		t.Fatalf("reply target = %q, want originating message", sink.reply)
	}
	if len(sink.created) != 1 || !strings.Contains(sink.created[0], "🚀 Starting") {
		t.Fatalf("created = %q", sink.created)
	}
	if !strings.Contains(sink.created[0], " 10%") {
		t.Fatalf("initial status not at 10%%: %q", sink.created[0])
	}
}

func TestBeginPropagatesSinkError(t *testing.T) {
	ch := NewChannel(&recordingSink{err: errors.New("blocked")})
	if _, err := ch.Begin(context.Background(), message.Message{}); err == nil {
		t.Fatalf("Begin() expected error")
	}
}

func TestUpdateNilHandleIsNoop(t *testing.T) {
	sink := &recordingSink{}
	ch := NewChannel(sink)

	ch.Update(context.Background(), nil, Update{Description: "x", ShowProgress: true})
	if len(sink.edits) != 0 {
		t.Fatalf("edit happened with nil handle")
	}
}

func TestUpdateHidesProgressWhenShowProgressFalse(t *testing.T) {
	sink := &recordingSink{}
	ch := NewChannel(sink)

	p := 0.7
	ch.Update(context.Background(), &Handle{ChatID: "c", MessageID: "m"}, Update{
		Progress:     &p,
		Description:  "final report",
		ShowProgress: false,
	})

	if len(sink.edits) != 1 {
		t.Fatalf("edits = %d", len(sink.edits))
	}
	if strings.Contains(sink.edits[0], "%") || strings.Contains(sink.edits[0], "█") {
		t.Fatalf("progress bar rendered despite ShowProgress=false: %q", sink.edits[0])
	}
}

func TestUpdateSwallowsEditErrors(t *testing.T) {
	ch := NewChannel(&recordingSink{err: errors.New("gone")})
	// Must not panic or propagate.
	ch.Update(context.Background(), &Handle{ChatID: "c", MessageID: "m"}, Update{Description: "x"})
}
