package llm

import "strings"

// extractTagged pulls the payload out of <tag>...</tag> in a model
// reply. Returns false when the tags are absent or malformed.
func extractTagged(s, tag string) (string, bool) {
	openTag := "<" + tag + ">"
	closeTag := "</" + tag + ">"

	start := strings.Index(s, openTag)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// extractJSONObject trims a model reply down to its outermost JSON
// object, tolerating code fences and surrounding prose.
func extractJSONObject(s string) string {
	return extractDelimited(stripCodeFence(s), '{', '}')
}

// extractJSONArray does the same for a JSON array.
func extractJSONArray(s string) string {
	return extractDelimited(stripCodeFence(s), '[', ']')
}

func extractDelimited(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
