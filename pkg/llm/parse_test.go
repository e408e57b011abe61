package llm

import "testing"

func TestExtractTagged(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tag   string
		want  string
		ok    bool
	}{
		{
			name:  "plain tags",
			input: `<json>{"title": "x"}</json>`,
			tag:   "json",
			want:  `{"title": "x"}`,
			ok:    true,
		},
		{
			name:  "surrounding prose",
			input: "Here you go:\n<tasks>[{\"title\": \"a\"}]</tasks>\nDone.",
			tag:   "tasks",
			want:  `[{"title": "a"}]`,
			ok:    true,
		},
		{
			name:  "missing close tag",
			input: `<json>{"title": "x"}`,
			tag:   "json",
			ok:    false,
		},
		{
			name:  "no tags at all",
			input: `{"title": "x"}`,
			tag:   "json",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractTagged(tt.input, tt.tag)
			if ok != tt.ok {
				t.Fatalf("extractTagged() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("extractTagged() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around object",
			input: `Sure! {"a": 1} Hope that helps.`,
			want:  `{"a": 1}`,
		},
		{
			name:  "nothing parseable",
			input: "no json here",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.input); got != tt.want {
				t.Fatalf("extractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	input := "```\n[{\"title\": \"a\"}]\n```"
	want := `[{"title": "a"}]`
	if got := extractJSONArray(input); got != want {
		t.Fatalf("extractJSONArray() = %q, want %q", got, want)
	}
}
