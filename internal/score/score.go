package score

import (
	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region pipeline

// Score rates one task deterministically: mode detection, the ordered hard
// gates, dominance, then fuzzy scoring with rule overrides. The returned
// prediction always carries the full debug payload so any label can be
// audited back to its inputs.
func Score(f feature.Features, cfg config.Config) Prediction {
	mode := DetectMode(f.Query)

	debug := Debug{
		Mode:     mode,
		Features: f,
	}

	outcome, incomplete := EvaluateGates(f, cfg)
	debug.Gates = gateFlagsFrom(outcome, incomplete)
	if outcome != nil {
		return Prediction{
			TaskID:  f.TaskID,
			Rating:  outcome.Rating,
			Comment: ComposeGateComment(mode, *outcome),
			Debug:   debug,
		}
	}

	dom := ComputeDominance(f, cfg)
	debug.Dominance = dom

	var res fuzzyResult
	if mode == ModePrefix {
		res = scorePrefix(f, dom, cfg)
	} else {
		res = scoreIntent(f, dom, cfg)
	}
	if incomplete {
		res = applyIncompleteTitle(res, dom, cfg)
	}

	debug.MatchBasis = res.basis
	debug.MatchRatio = res.matchRatio
	debug.Dimensions = res.dimensions
	debug.DowngradeReason = res.reason

	return Prediction{
		TaskID:  f.TaskID,
		Rating:  res.rating,
		Comment: ComposeComment(mode, res.basis, res.reason, res.rating),
		Debug:   debug,
	}
}

func gateFlagsFrom(outcome *GateOutcome, incomplete bool) GateFlags {
	flags := GateFlags{IncompleteTitle: incomplete}
	if outcome == nil {
		return flags
	}
	switch outcome.Gate {
	case "policy":
		flags.Concerns = true
	case "validation":
		flags.Validation = true
	case "spelling":
		flags.Spelling = true
	case "format":
		flags.Format = true
	}
	return flags
}

// #endregion pipeline
