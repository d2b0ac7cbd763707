// Package sanitize cleans user-provided text before it reaches prompts,
// emails or rendered documents.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	blankRunRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRunRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and normalizes whitespace in multi-line free text such as
// the "additional information" box of a valuation request.
func Text(s string) string {
	s = strings.ReplaceAll(StripHTML(s), "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRunRegex.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(newlineRunRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// Line sanitizes a single-line field (street name, municipality). Newlines are
// folded into spaces so the value cannot open a new section of a prompt.
func Line(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(StripHTML(s))
	return strings.TrimSpace(blankRunRegex.ReplaceAllString(s, " "))
}
