package score

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/text/unicode/norm"
)

// #region tokenize

var tokenRe = regexp.MustCompile(`[A-Za-z0-9']+`)

func tokenize(text string) []string {
	return tokenRe.FindAllString(text, -1)
}

// #endregion tokenize

// #region normalize

// normalizeBasic lowercases and collapses internal whitespace.
func normalizeBasic(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// normalizePunct strips diacritics and drops every non-alphanumeric rune,
// leaving a lowercase comparison key.
func normalizePunct(value string) string {
	stripped := stripDiacritics(strings.ToLower(value))
	var b strings.Builder
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritics decomposes to NFKD and removes combining marks.
func stripDiacritics(value string) string {
	decomposed := norm.NFKD.String(value)
	var b strings.Builder
	for _, r := range decomposed {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// #endregion normalize

// #region similarity

// matchRatio measures similarity of two punctuation-normalized strings in
// [0, 1] via edit distance. 1 means the normalized forms are identical.
func matchRatio(left, right string) float64 {
	a := normalizePunct(left)
	b := normalizePunct(right)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	ratio := 1 - float64(distance)/float64(longest)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// editDistance is the raw Levenshtein distance of the punctuation-normalized
// forms, used by the spelling gate's near-miss check.
func editDistance(left, right string) int {
	a := normalizePunct(left)
	b := normalizePunct(right)
	if a == b {
		return 0
	}
	dmp := diffmatchpatch.New()
	return dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
}

// #endregion similarity
