package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "shorter than max", input: "hello", max: 10, want: "hello"},
		{name: "exactly max", input: "hello", max: 5, want: "hello"},
		{name: "truncated", input: "hello world", max: 8, want: "hello..."},
		{name: "tiny max", input: "hello", max: 2, want: "he"},
		{name: "zero max", input: "hello", max: 0, want: ""},
		{name: "multibyte runes", input: "你好世界你好世界", max: 7, want: "你好世界..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.max); got != tt.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain name", input: "notes.txt", want: "notes.txt"},
		{name: "path stripped", input: "/etc/passwd", want: "passwd"},
		{name: "traversal stripped", input: "../../secret.txt", want: "secret.txt"},
		{name: "control chars removed", input: "a\x00b\x1fc.txt", want: "abc.txt"},
		{name: "empty becomes unnamed", input: "", want: "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Fatalf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
