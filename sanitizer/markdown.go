// Package sanitizer cleans free-form model text and turns structured model
// output into typed results.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// A code fence anywhere in the text. A language label directly after it
	// goes too, with the space or newline that ends the label.
	codeFence = regexp.MustCompile("```(?:[A-Za-z][A-Za-z0-9_+#-]*(?:[ \t]*\n|[ \t]+|\\z))?")
	// A heading run at the start of a line and the space after it.
	headingMarker = regexp.MustCompile(`(?m)^([ \t]*)#+[ \t]?`)

	// Emphasis opens before a non-space and closes after one, so "3 * 4"
	// and a lone "*" survive.
	strongStar = regexp.MustCompile(`\*\*([^\s*](?:[^*\n]*?[^\s*])?)\*\*`)
	emStar     = regexp.MustCompile(`\*([^\s*](?:[^*\n]*?[^\s*])?)\*`)
	strongLine = regexp.MustCompile(`__([^\s_](?:[^_\n]*?[^\s_])?)__`)
	emLine     = regexp.MustCompile(`_([^\s_](?:[^_\n]*?[^\s_])?)_`)
	inlineCode = regexp.MustCompile("`([^`\n]+)`")
)

// StripMarkdown removes paired emphasis, heading, code and underline markers
// from model text. The text between markers is kept in its original order.
// Unpaired "*" and "_" inside words, as in "3*4" or "snake_case", are prose.
func StripMarkdown(s string) string {
	s = codeFence.ReplaceAllString(s, "")
	s = headingMarker.ReplaceAllString(s, "$1")
	s = strongStar.ReplaceAllString(s, "$1")
	s = emStar.ReplaceAllString(s, "$1")
	s = unwrapOutsideWords(s, strongLine)
	s = unwrapOutsideWords(s, emLine)
	s = inlineCode.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// unwrapOutsideWords replaces each match of re with its first group unless
// the match touches a letter or digit on either side. Underscores inside a
// word never mark emphasis.
func unwrapOutsideWords(s string, re *regexp.Regexp) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if wordRuneBefore(s, m[0]) || wordRuneAfter(s, m[1]) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(s[m[2]:m[3]])
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func wordRuneBefore(s string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(s[:i])
	return size > 0 && isWordRune(r)
}

func wordRuneAfter(s string, i int) bool {
	r, size := utf8.DecodeRuneInString(s[i:])
	return size > 0 && isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
