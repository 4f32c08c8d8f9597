package score

import (
	"regexp"
	"strings"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region fuzzy-result

// fuzzyResult carries the graded decision plus everything the comment and
// debug payload need.
type fuzzyResult struct {
	rating     Rating
	reason     DowngradeReason
	basis      MatchBasis
	matchRatio float64
	dimensions map[string]int
}

// #endregion fuzzy-result

// #region dimensions

// matchDimension grades how strongly the hint matches the official title as
// a completion of the query: 2 exact, 1 close, 0 different entity.
func matchDimension(f feature.Features, ratio float64) int {
	if ratio < 0.5 {
		return 0
	}
	if ratio < 0.9 {
		return 1
	}
	qn := normalizePunct(f.Query)
	tn := normalizePunct(f.Result)
	if qn == "" || strings.HasPrefix(tn, qn) || strings.Contains(tn, qn) {
		return 2
	}
	return 1
}

// dominanceDimension grades the dominance ratio against the config cutoffs.
// Only meaningful when the dominance result is valid.
func dominanceDimension(dom DominanceResult, cutoffs config.DominanceCutoffs) int {
	switch {
	case dom.Ratio >= cutoffs.Perfect:
		return 2
	case dom.Ratio >= cutoffs.Good:
		return 1
	default:
		return 0
	}
}

// mainstreamDimension grades absolute popularity: 2 mainstream, 1 known,
// 0 niche.
func mainstreamDimension(popularity float64, cfg config.Config) int {
	switch {
	case popularity >= 2*cfg.NichePopularity:
		return 2
	case popularity >= cfg.NichePopularity:
		return 1
	default:
		return 0
	}
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// relevanceDimension grades how much of the stated query intent the official
// title covers: token overlap first, string similarity as the fallback.
func relevanceDimension(f feature.Features, ratio float64) int {
	target := strings.ToLower(f.OfficialTitle + " " + f.Result)
	var considered, covered int
	for _, token := range tokenize(strings.ToLower(f.Query)) {
		if len(token) < 3 {
			continue
		}
		considered++
		if strings.Contains(target, token) {
			covered++
		}
	}
	if considered > 0 {
		frac := float64(covered) / float64(considered)
		switch {
		case frac >= 0.6:
			return 2
		case frac > 0:
			return 1
		default:
			return 0
		}
	}
	// Every query token was too short to grade; fall back to similarity.
	if ratio >= 0.7 {
		return 1
	}
	return 0
}

// constraintDimension grades type and year constraints stated in the query
// against the resolved entity: 2 fits, 1 unknown, 0 contradicted.
func constraintDimension(f feature.Features) int {
	query := strings.ToLower(f.Query)
	ct := f.ContentType

	if strings.Contains(query, "movie") || strings.Contains(query, "film") {
		if ct == feature.ContentSeries || ct == feature.ContentPerson {
			return 0
		}
	}
	if strings.Contains(query, "series") || strings.Contains(query, "show") || strings.Contains(query, " tv") {
		if ct == feature.ContentMovie || ct == feature.ContentPerson {
			return 0
		}
	}
	if year := yearRe.FindString(query); year != "" {
		if f.OfficialTitle != "" && !strings.Contains(f.OfficialTitle, year) {
			return 0
		}
	}
	if ct == feature.ContentUnknown {
		return 1
	}
	return 2
}

// expectednessDimension grades whether this is the candidate a user would
// expect: driven by dominance when valid, neutral when not.
func expectednessDimension(dom DominanceResult, cutoffs config.DominanceCutoffs) int {
	if !dom.Valid {
		return 1
	}
	switch {
	case dom.Ratio >= cutoffs.Good:
		return 2
	case dom.Ratio >= cutoffs.Acceptable:
		return 1
	default:
		return 0
	}
}

// #endregion dimensions

// #region prefix-decision

// scorePrefix applies the prefix-mode decision table. Rules override the
// numeric grades: a zero match is terminal, and a valid stronger alternative
// caps the result regardless of the other dimensions.
func scorePrefix(f feature.Features, dom DominanceResult, cfg config.Config) fuzzyResult {
	ratio := matchRatio(f.Result, f.OfficialTitle)
	match := matchDimension(f, ratio)
	mainstream := mainstreamDimension(dom.Popularity, cfg)
	domDim := 0
	if dom.Valid {
		domDim = dominanceDimension(dom, cfg.DominanceCutoffs)
	}

	res := fuzzyResult{
		matchRatio: ratio,
		basis:      deriveBasis(f, ModePrefix, ratio),
		dimensions: map[string]int{
			"match":      match,
			"dominance":  domDim,
			"mainstream": mainstream,
		},
	}

	if match == 0 {
		res.rating = RatingUnacceptableOther
		res.reason = ReasonAmbiguous
		return res
	}

	if dom.Valid && dom.Ratio < cfg.DominanceCutoffs.Acceptable {
		res.rating = RatingUnacceptableOther
		res.reason = ReasonAlternativeExists
		return res
	}

	switch {
	case match == 2 && domDim == 2 && mainstream >= 1:
		res.rating = RatingPerfect
	case match >= 1 && mainstream >= 1:
		res.rating = RatingGood
	default:
		res.rating = RatingAcceptable
	}

	if dom.Valid && dom.AlternativeExists {
		if res.rating == RatingPerfect {
			res.rating = RatingGood
		}
		if mainstream == 0 {
			res.rating = RatingAcceptable
		}
	}

	res.reason = selectReason(res.rating, false, dom, mainstream, 2)
	return res
}

// #endregion prefix-decision

// #region intent-decision

// scoreIntent applies the intent-mode decision table over semantic
// relevance, constraint fit, and expectedness.
func scoreIntent(f feature.Features, dom DominanceResult, cfg config.Config) fuzzyResult {
	ratio := matchRatio(f.Result, f.OfficialTitle)
	relevance := relevanceDimension(f, ratio)
	fit := constraintDimension(f)
	expected := expectednessDimension(dom, cfg.DominanceCutoffs)

	res := fuzzyResult{
		matchRatio: ratio,
		basis:      deriveBasis(f, ModeIntent, ratio),
		dimensions: map[string]int{
			"relevance":    relevance,
			"fit":          fit,
			"expectedness": expected,
		},
	}

	if relevance == 0 {
		res.rating = RatingUnacceptableOther
		res.reason = ReasonAmbiguous
		return res
	}

	total := relevance + fit + expected
	switch {
	case total >= 6, total == 5 && relevance == 2:
		res.rating = RatingPerfect
	case total >= 4:
		res.rating = RatingGood
	case total >= 2:
		res.rating = RatingAcceptable
	default:
		res.rating = RatingUnacceptableOther
	}

	res.reason = selectReason(res.rating, false, dom, mainstreamDimension(dom.Popularity, cfg), fit)
	return res
}

// #endregion intent-decision

// #region incomplete-override

// applyIncompleteTitle replaces the computed rating when the hint omitted a
// subtitle. Default is Acceptable; a truncation that is itself the single
// dominant reference earns Good. Perfect needs the full ladder: the dominance
// and match-strength upgrade thresholds plus full mainstreamness.
func applyIncompleteTitle(res fuzzyResult, dom DominanceResult, cfg config.Config) fuzzyResult {
	mainstream := mainstreamDimension(dom.Popularity, cfg)
	rating := RatingAcceptable
	if dom.Valid && !dom.AlternativeExists && dom.Ratio >= cfg.DominanceCutoffs.Good {
		rating = RatingGood
		if dom.Ratio >= cfg.IncompleteTitle.UpgradeDominance &&
			res.matchRatio >= cfg.IncompleteTitle.UpgradeMatch &&
			mainstream == 2 {
			rating = RatingPerfect
		}
	}
	res.rating = rating
	res.reason = ReasonIncompleteTitle
	if rating == RatingPerfect {
		res.reason = ReasonNone
	}
	return res
}

// #endregion incomplete-override

// #region reason-selection

// selectReason picks the single primary downgrade reason in fixed priority:
// incomplete title, then a stronger alternative, then niche popularity or a
// constraint mismatch, then ambiguity. Perfect outcomes carry no reason.
func selectReason(rating Rating, incomplete bool, dom DominanceResult, mainstream, fit int) DowngradeReason {
	if rating == RatingPerfect {
		return ReasonNone
	}
	switch {
	case incomplete:
		return ReasonIncompleteTitle
	case dom.Valid && dom.AlternativeExists:
		return ReasonAlternativeExists
	case mainstream == 0:
		return ReasonNiche
	case fit == 0:
		return ReasonConstraintMismatch
	default:
		return ReasonAmbiguous
	}
}

// #endregion reason-selection

// #region basis

// deriveBasis names the evidence path that produced the match: a literal
// prefix completion, a franchise sibling from the candidate list, or
// semantic evidence.
func deriveBasis(f feature.Features, mode Mode, ratio float64) MatchBasis {
	qn := normalizePunct(f.Query)
	tn := normalizePunct(f.Result)
	if mode == ModePrefix && qn != "" && strings.HasPrefix(tn, qn) {
		return BasisPrefix
	}
	rn := normalizeBasic(f.Result)
	for _, candidate := range f.QueryCandidates {
		cn := normalizeBasic(candidate)
		if cn == "" || rn == "" {
			continue
		}
		if strings.Contains(cn, rn) || strings.Contains(rn, cn) {
			return BasisFranchise
		}
	}
	return BasisSemantic
}

// #endregion basis
