package util

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "Russian Federation",
			want:  "Russian Federation",
		},
		{
			name:  "contains null byte",
			input: "Ky\x00iv",
			want:  "Kyiv",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "already clean", input: "NATO troops", want: "NATO troops"},
		{name: "line breaks and tabs", input: " NATO\n\ttroops \r\n", want: "NATO troops"},
		{name: "only whitespace", input: " \n\t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWhitespace(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected normalized value: got %q, want %q", got, tt.want)
			}
		})
	}
}
