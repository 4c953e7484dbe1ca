package evalcore

import (
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// foldASCII lowercases for LIKE/CONTAINS/class-token comparisons using
// golang.org/x/text/cases rather than strings.ToLower, so multi-byte
// casing (e.g. Turkish dotless I) folds the same way the teacher's
// request-normalization layer folds user-facing strings.
func foldASCII(s string) string {
	return foldCaser.String(s)
}

// likeToRegex converts a SQL-style LIKE pattern (% and _ wildcards,
// backslash escapes) into an anchored regex pattern.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteString(regexp2.Escape(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp2.Escape(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// MatchLike implements the LIKE compare op case-insensitively.
func MatchLike(value, pattern string) (bool, error) {
	re, err := regexp2.Compile(likeToRegex(foldASCII(pattern)), regexp2.None)
	if err != nil {
		return false, err
	}
	return re.MatchString(foldASCII(value))
}

// MatchRegex implements the `~` compare op using dlclark/regexp2 (the
// teacher's rest-of-pack regex engine choice), which supports the
// lookaround/backreference surface spec §4.2 leaves room for beyond
// RE2's subset.
func MatchRegex(value, pattern string) (bool, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false, err
	}
	return re.MatchString(value)
}

// tokenClassMatch reports whether needle appears as a whitespace-
// separated token in haystack (used by CONTAINS/CONTAINS_ALL/
// CONTAINS_ANY against class-like attributes such as `class`), folded
// for case-insensitivity.
func tokenClassMatch(haystack, needle string) bool {
	needle = foldASCII(needle)
	for _, tok := range strings.Fields(foldASCII(haystack)) {
		if tok == needle {
			return true
		}
	}
	return false
}
