package util

import (
	"regexp"
	"strings"
)

// The class is case-insensitive too, so "SCOPE: Foo" is accepted and lowercased.
// Whitespace includes Unicode spaces such as NBSP.
var scopePattern = regexp.MustCompile(`(?im)^[\s\p{Zs}]*SCOPE[\s\p{Zs}]*:[\s\p{Zs}]*([a-z0-9._/\-]+)[\s\p{Zs}]*$`)

// ExtractScope は本文から最初の "SCOPE: <token>" 行を探し、小文字化したトークンを返します
func ExtractScope(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	m := scopePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	scope := strings.ToLower(strings.TrimSpace(m[1]))
	if scope == "" {
		return "", false
	}
	return scope, true
}
