package score

import (
	"fmt"
	"strings"
)

// #region comment

// reasonText maps each downgrade reason to the fixed sentence fragment used
// in comments. The wording is part of the output contract; changing it
// breaks downstream audit tooling.
var reasonText = map[DowngradeReason]string{
	ReasonIncompleteTitle:    "hint omits the subtitle of the official title",
	ReasonAlternativeExists:  "a materially stronger alternative exists",
	ReasonNiche:              "matched entity is niche",
	ReasonConstraintMismatch: "result does not fit a stated constraint",
	ReasonAmbiguous:          "match to the stated intent is ambiguous",
}

var basisText = map[MatchBasis]string{
	BasisPrefix:    "prefix completion of the typed text",
	BasisFranchise: "franchise sibling of the typed text",
	BasisSemantic:  "semantic match to the stated intent",
}

// ComposeComment renders the one-sentence justification:
// "<Mode>; <match basis>; <reason>."
func ComposeComment(mode Mode, basis MatchBasis, reason DowngradeReason, rating Rating) string {
	basisPart, ok := basisText[basis]
	if !ok {
		basisPart = basisText[BasisSemantic]
	}
	reasonPart := "dominant match"
	if reason != ReasonNone {
		if text, ok := reasonText[reason]; ok {
			reasonPart = text
		}
	} else if rating != RatingPerfect {
		reasonPart = "strong match"
	}
	return fmt.Sprintf("%s; %s; %s.", modeLabel(mode), basisPart, reasonPart)
}

// ComposeGateComment renders the justification for a terminal gate outcome.
// Gate comments carry the gate's fixed reason instead of a match basis.
func ComposeGateComment(mode Mode, outcome GateOutcome) string {
	return fmt.Sprintf("%s; %s gate; %s.", modeLabel(mode), outcome.Gate, outcome.Reason)
}

func modeLabel(mode Mode) string {
	if mode == "" {
		return "Intent"
	}
	return strings.ToUpper(string(mode[:1])) + string(mode[1:])
}

// #endregion comment
