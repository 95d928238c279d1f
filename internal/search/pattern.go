package search

import (
	"fmt"
	"regexp"
	"unicode"
)

// CompileTermPattern compiles a keyword term as raw regex wrapped in word
// boundaries: terms may embed alternation or classes directly. Matching is
// case-insensitive.
func CompileTermPattern(term string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)\b(?:` + term + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid search term %q: %w", term, err)
	}
	return re, nil
}

// CompileWordBoundary compiles an exact-match pattern: the term is escaped
// and wrapped with boundaries fitted to its edge characters. A word-char
// edge gets \b; any other edge anchors to whitespace or the string edge
// (RE2 has no lookaround, so this replaces the usual (?<!\S)/(?!\S) pair).
func CompileWordBoundary(term string) (*regexp.Regexp, error) {
	left, right := `(?:^|\s)`, `(?:$|\s)`
	runes := []rune(term)
	if len(runes) > 0 && isWordRune(runes[0]) {
		left = `\b`
	}
	if len(runes) > 0 && isWordRune(runes[len(runes)-1]) {
		right = `\b`
	}
	re, err := regexp.Compile(`(?i)` + left + regexp.QuoteMeta(term) + right)
	if err != nil {
		return nil, fmt.Errorf("invalid keyword %q: %w", term, err)
	}
	return re, nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
