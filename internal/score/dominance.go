package score

import (
	"math"
	"strings"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region popularity

// Popularity computes the popularity proxy for one entity. Titles combine a
// rating term with a log-scaled vote term; people use an inverted prominence
// rank; categories carry the fixed configured score.
func Popularity(ct feature.ContentType, votes *int, rating *float64, starmeter *int, cfg config.Config) float64 {
	pop := cfg.Popularity
	switch ct {
	case feature.ContentPerson:
		if starmeter == nil {
			return 0
		}
		rank := float64(*starmeter)
		return math.Max(0, 1-math.Min(rank, pop.StarmeterMax)/pop.StarmeterMax)
	case feature.ContentCategory:
		return cfg.CategoryScore
	}

	var ratingScore float64
	if rating != nil {
		ratingScore = math.Max(0, math.Min(*rating/10, 1))
	}
	var votesScore float64
	if votes != nil && *votes > 0 {
		votesScore = math.Min(1, math.Log10(float64(*votes)+1)/math.Log10(pop.MaxVotes))
	}
	return pop.RatingWeight*ratingScore + pop.VotesWeight*votesScore
}

func alternativePopularity(alt feature.AlternativeCandidate, cfg config.Config) float64 {
	return Popularity(alt.ContentType, alt.IMDBVotes, alt.IMDBRating, alt.Starmeter, cfg)
}

// effectiveContentType promotes an unknown type to category when the
// official title is a list/category page rather than a work.
func effectiveContentType(f feature.Features) feature.ContentType {
	if f.ContentType != feature.ContentUnknown {
		return f.ContentType
	}
	lowered := strings.ToLower(f.OfficialTitle)
	if strings.HasPrefix(lowered, "list of ") || strings.Contains(lowered, "category:") {
		return feature.ContentCategory
	}
	return f.ContentType
}

// #endregion popularity

// #region dominance

// ComputeDominance derives the dominance intermediates for one task:
// the result's popularity, its strongest competitor, the bounded dominance
// ratio, and whether a materially stronger alternative exists.
//
// Stability override: when both vote counts are known and small, the vote
// evidence is too noisy to rank on. The ratio is pinned to 0.5 for display,
// the result is marked invalid, and no alternative is declared.
func ComputeDominance(f feature.Features, cfg config.Config) DominanceResult {
	ct := effectiveContentType(f)
	result := DominanceResult{
		Popularity: Popularity(ct, f.IMDBVotes, f.IMDBRating, f.Starmeter, cfg),
		Valid:      true,
	}

	best := bestAlternative(f, ct, cfg)
	if best != nil {
		chosen := *best
		result.BestAlternative = &chosen
		result.AltPopularity = alternativePopularity(chosen, cfg)
	}

	denom := result.Popularity + result.AltPopularity
	if denom > 0 {
		result.Ratio = math.Max(0, math.Min(1, result.Popularity/denom))
	}

	result.AlternativeExists = result.AltPopularity > 0 &&
		result.AltPopularity-result.Popularity >= cfg.AltMargin

	minVotes := cfg.Dominance.MinVotesForDominance
	if minVotes > 0 && f.IMDBVotes != nil && best != nil && best.IMDBVotes != nil {
		if maxInt(*f.IMDBVotes, *best.IMDBVotes) < minVotes {
			result.Valid = false
			result.Ratio = 0.5
			result.AlternativeExists = false
		}
	}
	return result
}

// bestAlternative picks the highest-popularity competitor of the same entity
// type, falling back across types only when no same-type candidate exists.
// Slice order breaks ties so the choice is stable across runs.
func bestAlternative(f feature.Features, ct feature.ContentType, cfg config.Config) *feature.AlternativeCandidate {
	candidates := make([]feature.AlternativeCandidate, 0, len(f.Alternatives)+1)
	candidates = append(candidates, f.Alternatives...)
	if f.BestAlternative != nil && !containsAlternative(candidates, *f.BestAlternative) {
		candidates = append(candidates, *f.BestAlternative)
	}
	if len(candidates) == 0 {
		return nil
	}

	pick := func(pool []feature.AlternativeCandidate) *feature.AlternativeCandidate {
		if len(pool) == 0 {
			return nil
		}
		idx := 0
		for i := 1; i < len(pool); i++ {
			if alternativePopularity(pool[i], cfg) > alternativePopularity(pool[idx], cfg) {
				idx = i
			}
		}
		return &pool[idx]
	}

	var sameType []feature.AlternativeCandidate
	for _, alt := range candidates {
		if alt.ContentType == ct {
			sameType = append(sameType, alt)
		}
	}
	if best := pick(sameType); best != nil {
		return best
	}
	return pick(candidates)
}

func containsAlternative(pool []feature.AlternativeCandidate, alt feature.AlternativeCandidate) bool {
	for _, existing := range pool {
		if existing.Source == alt.Source && existing.Name == alt.Name {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// #endregion dominance
