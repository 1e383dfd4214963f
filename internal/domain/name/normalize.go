// Package name turns display names into matching keys.
package name

import (
	"regexp"
	"strings"
)

var (
	// Whole-word product category terms that vary between catalogs. Word
	// characters are Unicode letters, digits and '_', so "ñedp" is one word.
	categoryTerms = regexp.MustCompile(
		`(^|[^\p{L}\p{N}_])(perfume|eau de parfum|edp|edt|eau de toilette|extrait|cologne)($|[^\p{L}\p{N}_])`)
	// Everything outside lowercase ASCII letters, digits and the plain space.
	disallowed = regexp.MustCompile(`[^a-z0-9 ]`)
)

// Normalize returns the matching key for a fragrance display name:
// lower-cased, category terms removed, restricted to [a-z0-9 ] and
// whitespace collapsed. Empty input yields "".
//
// Stripping punctuation can expose a category term ("eau de par-fum"),
// so the steps repeat until the key is stable. This keeps
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	key := normalizeOnce(s)
	for {
		next := normalizeOnce(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizeOnce(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = stripCategoryTerms(s)
	s = disallowed.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// stripCategoryTerms removes category terms keeping their boundary
// characters. Adjacent terms share a boundary, so it repeats until stable.
func stripCategoryTerms(s string) string {
	for {
		next := categoryTerms.ReplaceAllString(s, "${1}${3}")
		if next == s {
			return s
		}
		s = next
	}
}
