package text

import (
	"regexp"
	"strings"
)

// Markup patterns, applied in order. Narrow patterns run before the generic
// symbol strip so emphasis and code spans keep their inner text.
var (
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern  = regexp.MustCompile(`\*([^*]+)\*`)
	codePattern    = regexp.MustCompile("`+([^`]+)`+")
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emojiPattern   = regexp.MustCompile(`:[a-z_]+:`)
	symbolPattern  = regexp.MustCompile("[#*_~`>]")
	nonASCIIRunPat = regexp.MustCompile(`[^\x00-\x7F]+`)
)

// Normalize strips Markdown markup and other non-verbalizable symbols from
// raw text and collapses all whitespace runs to a single space.
//
// The markup passes are repeated until the text stops changing, so
// Normalize(Normalize(s)) == Normalize(s) for every input. Overlapping or
// deeply nested markup can still leave residual characters; they are spoken
// as-is.
func Normalize(raw string) string {
	s := normalizePass(raw)
	for {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizePass(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	s = italicPattern.ReplaceAllString(s, "$1")
	s = codePattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = emojiPattern.ReplaceAllString(s, "")
	s = symbolPattern.ReplaceAllString(s, "")
	return collapseSpace(s)
}

// FoldASCII replaces every run of non-ASCII characters (IPA, emoji, accented
// letters) with a space and re-collapses whitespace. Used for voices whose
// models cannot pronounce anything outside ASCII.
func FoldASCII(s string) string {
	return collapseSpace(nonASCIIRunPat.ReplaceAllString(s, " "))
}

// collapseSpace turns any run of Unicode whitespace into one ASCII space and
// trims both ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
