package util

import (
	"regexp"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSONArray pulls a JSON array out of an LLM response that may
// wrap it in markdown code fences or surrounding prose, and attempts
// to close a truncated array.
func ExtractJSONArray(s string) string {
	if matches := codeBlockRegex.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	} else {
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	if start == -1 {
		return s
	}

	if end := findMatchingBracket(s, start); end != -1 {
		return s[start : end+1]
	}

	// Truncated array: close it after the last complete element.
	if lastQuote := strings.LastIndex(s, "\""); lastQuote > start {
		trimmed := strings.TrimRight(s[start:], " \n\t,")
		return trimmed + "]"
	}
	return s[start:]
}

// findMatchingBracket finds the closing ']' for the '[' at startPos,
// skipping brackets inside string literals. Returns -1 if unbalanced.
func findMatchingBracket(s string, startPos int) int {
	depth := 0
	inString := false
	escaped := false

	for i := startPos; i < len(s); i++ {
		ch := s[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SanitizeJSON escapes literal newlines inside string values, a common
// defect in LLM-emitted JSON.
func SanitizeJSON(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if escaped {
			result.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			result.WriteByte(ch)
			escaped = true
			continue
		}
		if ch == '"' {
			result.WriteByte(ch)
			inString = !inString
			continue
		}
		if inString && (ch == '\n' || ch == '\r') {
			result.WriteString("\\n")
			if ch == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			continue
		}

		result.WriteByte(ch)
	}

	return result.String()
}

// TruncateString shortens s for log output.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
