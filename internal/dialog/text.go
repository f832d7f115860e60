package dialog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// stripMarks removes combining marks after NFD decomposition, turning
	// "é" into "e". French transcripts are full of diacritics the phrase
	// patterns must ignore.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	presentationRe = regexp.MustCompile(`\b(je m appelle|je suis|moi c est)\b`)

	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// Normalize lowercases text, strips diacritics, collapses non-alphanumeric
// runs to single spaces, and trims the result. The output is the canonical
// form the phrase heuristics match against.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	if stripped, _, err := transform.String(stripMarks, text); err == nil {
		text = stripped
	}
	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// DetectPresentation reports whether text contains a French self-introduction
// phrase ("je m'appelle…", "je suis…", "moi c'est…") as whole words in its
// normalized form.
func DetectPresentation(text string) bool {
	if text == "" {
		return false
	}
	return presentationRe.MatchString(Normalize(text))
}

// ExtractEmail returns the first email address found in the raw (not
// normalized) text, or "" when none is present.
func ExtractEmail(text string) string {
	if text == "" {
		return ""
	}
	return emailRe.FindString(text)
}
