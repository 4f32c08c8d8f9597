package score

import (
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region rating

// Rating is the discrete evaluation label. The strings are the wire values
// and must match the labeling tool exactly.
type Rating string

const (
	RatingPerfect              Rating = "Perfect"
	RatingGood                 Rating = "Good"
	RatingAcceptable           Rating = "Acceptable"
	RatingUnacceptableOther    Rating = "Unacceptable: Other"
	RatingUnacceptableSpelling Rating = "Unacceptable: Spelling"
	RatingUnacceptableConcerns Rating = "Unacceptable: Concerns"
	RatingProblemOther         Rating = "Problem: Other"
)

// Labels returns every rating in severity order, best first.
func Labels() []Rating {
	return []Rating{
		RatingPerfect,
		RatingGood,
		RatingAcceptable,
		RatingUnacceptableOther,
		RatingUnacceptableSpelling,
		RatingUnacceptableConcerns,
		RatingProblemOther,
	}
}

// Severity maps a rating to its position on the quality scale, 0 = best.
// Unknown labels sort after every known one.
func Severity(r Rating) int {
	for i, label := range Labels() {
		if label == r {
			return i
		}
	}
	return len(Labels())
}

// #endregion rating

// #region mode

// Mode is the evaluation mode derived from the query text alone.
type Mode string

const (
	ModePrefix Mode = "prefix"
	ModeIntent Mode = "intent"
)

// #endregion mode

// #region match-basis

// MatchBasis names the evidence path that produced the accepted candidate.
type MatchBasis string

const (
	BasisPrefix    MatchBasis = "prefix"
	BasisFranchise MatchBasis = "franchise"
	BasisSemantic  MatchBasis = "semantic"
)

// #endregion match-basis

// #region downgrade-reason

// DowngradeReason is the single primary reason reported for a non-Perfect
// outcome. Exactly one is selected, in fixed priority order.
type DowngradeReason string

const (
	ReasonNone               DowngradeReason = ""
	ReasonIncompleteTitle    DowngradeReason = "incomplete title"
	ReasonAlternativeExists  DowngradeReason = "alternative exists"
	ReasonNiche              DowngradeReason = "niche"
	ReasonConstraintMismatch DowngradeReason = "constraint mismatch"
	ReasonAmbiguous          DowngradeReason = "ambiguous"
)

// #endregion downgrade-reason

// #region dominance-result

// DominanceResult holds the popularity intermediates for one task.
type DominanceResult struct {
	Popularity        float64                       `json:"popularity"`
	AltPopularity     float64                       `json:"alt_popularity"`
	Ratio             float64                       `json:"dominance_ratio"`
	Valid             bool                          `json:"dominance_valid"`
	AlternativeExists bool                          `json:"alternative_exists"`
	BestAlternative   *feature.AlternativeCandidate `json:"best_alternative,omitempty"`
}

// #endregion dominance-result

// #region prediction

// GateFlags records which gates were consulted and which one terminated.
type GateFlags struct {
	Concerns        bool `json:"concerns"`
	Validation      bool `json:"validation"`
	Spelling        bool `json:"spelling"`
	Format          bool `json:"format"`
	IncompleteTitle bool `json:"incomplete_title"`
}

// Debug is the traceability payload attached to every prediction.
type Debug struct {
	Mode            Mode             `json:"mode"`
	Gates           GateFlags        `json:"gates"`
	MatchBasis      MatchBasis       `json:"match_basis,omitempty"`
	MatchRatio      float64          `json:"match_ratio"`
	Dominance       DominanceResult  `json:"dominance"`
	Dimensions      map[string]int   `json:"dimensions,omitempty"`
	DowngradeReason DowngradeReason  `json:"downgrade_reason,omitempty"`
	Features        feature.Features `json:"features"`
}

// Prediction is the scored outcome for one task under one config.
type Prediction struct {
	TaskID  string `json:"task_id"`
	Rating  Rating `json:"rating"`
	Comment string `json:"comment"`
	Debug   Debug  `json:"debug"`
}

// #endregion prediction
