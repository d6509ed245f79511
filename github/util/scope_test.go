package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractScope(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{name: "plain", text: "SCOPE: billing-migration", want: "billing-migration", found: true},
		{name: "mixed case key and token", text: "Scope: Foo-Bar_1", want: "foo-bar_1", found: true},
		{name: "lowercase key no space", text: "scope:alpha", want: "alpha", found: true},
		{name: "surrounding whitespace", text: "   SCOPE  :   Foo-Bar_1   ", want: "foo-bar_1", found: true},
		{name: "inside body", text: "Some intro\n\nSCOPE: api/v2.users\nmore text", want: "api/v2.users", found: true},
		{name: "crlf line endings", text: "intro\r\nSCOPE: api-v2\r\nrest", want: "api-v2", found: true},
		{name: "first match wins", text: "SCOPE: first\nSCOPE: second", want: "first", found: true},
		{name: "unicode spaces", text: "\u00a0SCOPE:\u00a0Foo\u2003", want: "foo", found: true},
		{name: "empty", text: "", found: false},
		{name: "no scope line", text: "This issue has no declaration", found: false},
		{name: "trailing words", text: "SCOPE: two words", found: false},
		{name: "not at line start", text: "the SCOPE: foo", found: false},
		{name: "empty token", text: "SCOPE:   ", found: false},
		{name: "invalid characters", text: "SCOPE: foo#bar", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractScope(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractScope_CaseInsensitiveEquality(t *testing.T) {
	a, okA := ExtractScope("SCOPE: Alpha")
	b, okB := ExtractScope("scope:alpha")

	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, a, b)
}
