package channels

import (
	"testing"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		allowFrom []string
		userID    string
		username  string
		want      bool
	}{
		{
			name:      "empty allowlist allows everyone",
			allowFrom: nil,
			userID:    "123",
			want:      true,
		},
		{
			name:      "match by user id",
			allowFrom: []string{"123", "456"},
			userID:    "123",
			want:      true,
		},
		{
			name:      "match by username",
			allowFrom: []string{"alice"},
			userID:    "999",
			username:  "alice",
			want:      true,
		},
		{
			name:      "no match",
			allowFrom: []string{"123"},
			userID:    "999",
			username:  "bob",
			want:      false,
		},
		{
			name:      "empty username never matches list entries",
			allowFrom: []string{""},
			userID:    "999",
			username:  "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &TelegramChannel{
				config: config.TelegramConfig{
					AllowFrom: config.FlexibleStringSlice(tt.allowFrom),
				},
			}
			if got := c.isAllowed(tt.userID, tt.username); got != tt.want {
				t.Fatalf("isAllowed(%q, %q) = %v, want %v", tt.userID, tt.username, got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("12345"); err != nil || id != 12345 {
		t.Fatalf("parseID(12345) = %d, %v", id, err)
	}
	if _, err := parseID("not-a-number"); err == nil {
		t.Fatalf("parseID() expected error for junk input")
	}
}
