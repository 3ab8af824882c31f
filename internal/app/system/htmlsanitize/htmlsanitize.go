// Package htmlsanitize reduces untrusted text, such as messages relayed
// from the backend, to plain text safe to show to an operator.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from s and returns unescaped text with runs
// of whitespace collapsed. Script and style bodies are dropped entirely.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	clean := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// IsPlainText reports whether s looks free of markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}
