// Package sanitize cleans user answer text before it is scored, stored,
// or written to the audit trail. It strips control characters, XML/HTML
// tags, and markdown scaffolding to prevent stored prompt injection
// while preserving semantic content.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxAnswerLength is the maximum stored length for an answer.
const MaxAnswerLength = 4000

// Pre-compiled regular expressions for performance.
var (
	// reXMLTag matches XML/HTML tags including attributes, self-closing
	// tags, processing instructions, and unclosed tags at end-of-string.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?\s*>|<\?[^?]*\?>|</\s+[a-zA-Z][^>]*>|<[/?!]?[a-zA-Z][^>]*$`)

	// reHTMLComment matches HTML comments like <!-- anything -->.
	reHTMLComment = regexp.MustCompile(`<!--[\s\S]*?-->`)

	// reMarkdownHeading matches markdown headings at the start of a line.
	reMarkdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	// reTripleBacktick matches triple (or more) backtick code fences.
	reTripleBacktick = regexp.MustCompile("```+")

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// Answer sanitizes one user answer for scoring and storage. The
// pipeline: strip control characters, strip HTML comments and tags,
// demote markdown headings, collapse code fences and excessive
// newlines, trim, and truncate rune-safely to MaxAnswerLength.
func Answer(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reHTMLComment.ReplaceAllString(s, "")
	s = reXMLTag.ReplaceAllString(s, "")
	s = reMarkdownHeading.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxAnswerLength {
		runes := []rune(s)
		s = string(runes[:MaxAnswerLength]) + "..."
	}

	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F)
// except \n and \t.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
