package util

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare array",
			input: `[{"a":1}]`,
			want:  `[{"a":1}]`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n[{\"a\":1}]\n```",
			want:  `[{"a":1}]`,
		},
		{
			name:  "fenced without language",
			input: "```\n[1,2,3]\n```",
			want:  `[1,2,3]`,
		},
		{
			name:  "surrounding prose",
			input: "Here are the results:\n[{\"a\":1}]\nLet me know if you need more.",
			want:  `[{"a":1}]`,
		},
		{
			name:  "bracket inside string",
			input: `[{"text":"a ] b"}] trailing`,
			want:  `[{"text":"a ] b"}]`,
		},
		{
			name:  "no array",
			input: "no json here",
			want:  "no json here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONArray(tt.input); got != tt.want {
				t.Errorf("ExtractJSONArray() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONArrayTruncated(t *testing.T) {
	input := `[{"a":"one"},{"a":"two"`
	got := ExtractJSONArray(input)

	// The repaired output must at least be closed.
	if got[len(got)-1] != ']' {
		t.Errorf("truncated array not closed: %q", got)
	}
}

func TestSanitizeJSON(t *testing.T) {
	input := "[{\"text\":\"line one\nline two\"}]"
	got := SanitizeJSON(input)

	var parsed []map[string]string
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("sanitized JSON does not parse: %v (%q)", err, got)
	}
	if parsed[0]["text"] != "line one\nline two" {
		t.Errorf("unexpected value: %q", parsed[0]["text"])
	}
}

func TestSanitizeJSONPreservesEscapes(t *testing.T) {
	input := `[{"text":"already \n escaped \"quote\""}]`
	if got := SanitizeJSON(input); got != input {
		t.Errorf("SanitizeJSON() altered valid JSON: %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString() = %q", got)
	}
	if got := TruncateString("a long string", 6); got != "a long..." {
		t.Errorf("TruncateString() = %q", got)
	}
}
