package score

import "strings"

// #region mode-detection

// DetectMode classifies a query as prefix or intent from its text alone.
// Prefix-mode means the query reads as a fragment the user was still typing:
// three or fewer characters, a single token, or a final token that looks cut
// off. The fragment heuristic is deliberately conservative: a short last
// token, or a short vowel-less one, counts as cut off; anything longer is
// treated as a finished word.
func DetectMode(query string) Mode {
	text := strings.TrimSpace(query)
	tokens := tokenize(text)
	if len([]rune(text)) <= 3 || len(tokens) <= 1 {
		return ModePrefix
	}
	last := tokens[len(tokens)-1]
	if looksLikeFragment(last) {
		return ModePrefix
	}
	return ModeIntent
}

func looksLikeFragment(token string) bool {
	n := len([]rune(token))
	if n <= 2 {
		return true
	}
	return n <= 4 && !strings.ContainsAny(strings.ToLower(token), "aeiou")
}

// #endregion mode-detection
