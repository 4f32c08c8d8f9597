package score

import (
	"strings"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// ValidationComment is the fixed reason text for evidence that cannot be
// validated. The wording is part of the output contract.
const ValidationComment = "cannot validate result due to system or link failure; evaluation blocked"

// #region gate-outcome

// GateOutcome is a terminal gate decision: a fixed rating plus the fixed
// reason string the comment is built from.
type GateOutcome struct {
	Gate   string
	Rating Rating
	Reason string
}

// gateState is the working context shared by the ordered gate checks.
type gateState struct {
	f   feature.Features
	cfg config.Config

	incompleteTitle bool
}

// gateRule pairs a gate name with its predicate. The first rule whose check
// returns a non-nil outcome terminates evaluation; later gates never run.
type gateRule struct {
	name  string
	check func(*gateState) *GateOutcome
}

func orderedGates() []gateRule {
	return []gateRule{
		{"policy", checkPolicy},
		{"validation", checkValidation},
		{"spelling", checkSpelling},
		{"format", checkFormat},
	}
}

// EvaluateGates runs the hard gates in fixed order. A nil outcome means
// control passes to fuzzy scoring; incompleteTitle is carried forward when
// the only title defect is an omitted subtitle.
func EvaluateGates(f feature.Features, cfg config.Config) (outcome *GateOutcome, incompleteTitle bool) {
	st := &gateState{f: f, cfg: cfg}
	for _, rule := range orderedGates() {
		if out := rule.check(st); out != nil {
			return out, st.incompleteTitle
		}
	}
	return nil, st.incompleteTitle
}

// #endregion gate-outcome

// #region policy-gate

func checkPolicy(st *gateState) *GateOutcome {
	texts := []string{
		st.f.Query,
		st.f.Result,
		st.f.OfficialTitle,
		strings.Join(st.f.QueryCandidates, " "),
	}
	for _, text := range texts {
		if text == "" {
			continue
		}
		lowered := strings.ToLower(text)
		for _, keyword := range st.cfg.ConcernsKeywords {
			if keyword != "" && strings.Contains(lowered, strings.ToLower(keyword)) {
				return &GateOutcome{
					Gate:   "policy",
					Rating: RatingUnacceptableConcerns,
					Reason: "disallowed content signal present",
				}
			}
		}
	}
	return nil
}

// #endregion policy-gate

// #region validation-gate

func checkValidation(st *gateState) *GateOutcome {
	if strings.TrimSpace(st.f.Result) == "" || st.f.Confidence == feature.ConfidenceLow {
		return &GateOutcome{
			Gate:   "validation",
			Rating: RatingProblemOther,
			Reason: ValidationComment,
		}
	}
	return nil
}

// #endregion validation-gate

// #region spelling-gate

var subtitleSeparators = []string{":", " - ", "–", "—"}

// detectIncompleteTitle reports whether the hint is the official title minus
// a subtitle after a colon or dash.
func detectIncompleteTitle(official, result string) bool {
	if official == "" || result == "" {
		return false
	}
	for _, sep := range subtitleSeparators {
		idx := strings.Index(official, sep)
		if idx <= 0 {
			continue
		}
		prefix := strings.TrimSpace(official[:idx])
		if normalizePunct(prefix) != "" && normalizePunct(prefix) == normalizePunct(result) {
			return true
		}
	}
	return false
}

func checkSpelling(st *gateState) *GateOutcome {
	official := st.f.OfficialTitle
	result := strings.TrimSpace(st.f.Result)
	if official == "" || result == "" {
		return nil
	}

	if detectIncompleteTitle(official, result) {
		// Omitted subtitle alone is not a spelling failure; scoring decides.
		st.incompleteTitle = true
		return nil
	}

	if normalizeBasic(result) == normalizeBasic(official) {
		return nil
	}

	// Punctuation or diacritics stripped away the whole difference.
	if normalizePunct(result) == normalizePunct(official) {
		return &GateOutcome{
			Gate:   "spelling",
			Rating: RatingUnacceptableSpelling,
			Reason: "missing punctuation or diacritics",
		}
	}

	// Near-miss on the normalized form is a misspelling, not a different
	// entity. Anything farther apart is left for match-strength scoring.
	// Very short titles are exempt: two edits there can mean a different title.
	if d := editDistance(result, official); d > 0 && d <= 2 && len(normalizePunct(official)) >= 5 {
		return &GateOutcome{
			Gate:   "spelling",
			Rating: RatingUnacceptableSpelling,
			Reason: "misspelled title",
		}
	}
	return nil
}

// #endregion spelling-gate

// #region format-gate

var conversationalPrefixes = []string{
	"any ", "show me ", "find ", "play ", "watch ", "please ", "can you ",
}

// checkFormat fires when the hint is not a title or name string at all but a
// conversational instruction. Which bucket it maps to is a per-deployment
// labeling convention carried in config.
func checkFormat(st *gateState) *GateOutcome {
	lowered := strings.ToLower(strings.TrimSpace(st.f.Result))
	conversational := strings.HasSuffix(lowered, "?")
	for _, prefix := range conversationalPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			conversational = true
			break
		}
	}
	if !conversational {
		return nil
	}
	rating := RatingUnacceptableOther
	if st.cfg.FormatGateBucket == config.BucketSpelling {
		rating = RatingUnacceptableSpelling
	}
	return &GateOutcome{
		Gate:   "format",
		Rating: rating,
		Reason: "hint is not a title or name",
	}
}

// #endregion format-gate
