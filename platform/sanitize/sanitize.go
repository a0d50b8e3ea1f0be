// Package sanitize cleans untrusted text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
)

// Text strips HTML, drops control characters and collapses whitespace runs.
// Tags hidden behind entities are stripped as well.
func Text(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = htmlTagRegex.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Label sanitizes a short categorical value such as a property type: the
// result is lower-cased Text cut to at most maxRunes runes.
func Label(s string, maxRunes int) string {
	s = strings.ToLower(Text(s))
	if maxRunes > 0 {
		if r := []rune(s); len(r) > maxRunes {
			s = strings.TrimSpace(string(r[:maxRunes]))
		}
	}
	return s
}

// Labels applies Label to every element and drops the ones left empty.
func Labels(in []string, maxRunes int) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if l := Label(s, maxRunes); l != "" {
			out = append(out, l)
		}
	}
	return out
}
