package extract

import (
	"errors"
	"fmt"
	"math"

	"github.com/danielpatrickdp/hinteval/internal/evidence"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// ErrExtractionBlocked signals that neither result source was usable. It is a
// sentinel state, not an abort: the returned Features record is still valid,
// carries low confidence, and routes to the validation gate downstream.
var ErrExtractionBlocked = errors.New("extract: result evidence unavailable")

const candidateLimit = 5

// #region extract-record

// ExtractRecord derives the feature record for one task from its cached
// evidence. Pure given the record contents; the cache is never re-read.
func ExtractRecord(rec evidence.Record) (feature.Features, error) {
	resultIMDB := rec.Source(evidence.KeyResultIMDB)
	resultGoogle := rec.Source(evidence.KeyResultGoogle)
	queryIMDB := rec.Source(evidence.KeyQueryIMDB)
	queryGoogle := rec.Source(evidence.KeyQueryGoogle)

	imdb := parseIMDB(resultIMDB.HTML)
	googleTitle := parseGoogleTitle(resultGoogle.HTML)

	officialTitle := imdb.OfficialTitle
	if officialTitle == "" {
		officialTitle = googleTitle
	}

	// Prefer the primary query source; fall back through the secondary.
	candidates := parseIMDBCandidates(queryIMDB.HTML, candidateLimit)
	if len(candidates) == 0 {
		candidates = parseGoogleCandidates(queryGoogle.HTML, candidateLimit)
	}
	if len(candidates) == 0 {
		candidates = parseGoogleCandidates(queryIMDB.HTML, candidateLimit)
	}

	alternatives := extractAlternatives(rec)
	var best *feature.AlternativeCandidate
	if len(alternatives) > 0 {
		idx := 0
		for i := 1; i < len(alternatives); i++ {
			if candidatePopularity(alternatives[i]) > candidatePopularity(alternatives[idx]) {
				idx = i
			}
		}
		chosen := alternatives[idx]
		best = &chosen
	}

	imdbParsed := imdb.OfficialTitle != "" && imdb.ContentType != feature.ContentUnknown
	imdbOk := resultIMDB.Availability() == evidence.SourceAvailable && imdbParsed
	googleOk := resultGoogle.Availability() == evidence.SourceAvailable && googleTitle != ""

	var errs []string
	for _, src := range []evidence.Source{resultIMDB, resultGoogle, queryGoogle, queryIMDB} {
		if src.Meta == nil {
			continue
		}
		if src.Meta.Error != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", src.Key, src.Meta.Error))
		}
		if src.Meta.PageStatus == "blocked" {
			errs = append(errs, fmt.Sprintf("%s: blocked", src.Key))
		}
	}

	feats := feature.Features{
		TaskID:              rec.Task.TaskID,
		Query:               rec.Task.Query,
		Result:              rec.Task.Result,
		OfficialTitle:       officialTitle,
		ContentType:         imdb.ContentType,
		IMDBVotes:           imdb.IMDBVotes,
		IMDBRating:          imdb.IMDBRating,
		Starmeter:           imdb.Starmeter,
		QueryCandidates:     candidates,
		Alternatives:        alternatives,
		BestAlternative:     best,
		ResultIMDBOk:        imdbOk,
		ResultGoogleOk:      googleOk,
		ResultIMDBBlocked:   resultIMDB.Availability() == evidence.SourceBlocked,
		ResultGoogleBlocked: resultGoogle.Availability() == evidence.SourceBlocked,
		EvidenceRefs:        evidenceRefs(rec),
		Errors:              errs,
	}
	feats.Confidence = deriveConfidence(feats)

	if feats.Confidence == feature.ConfidenceLow {
		return feats, ErrExtractionBlocked
	}
	return feats, nil
}

// deriveConfidence is low exactly when both result sources were unusable;
// a low-confidence record carries nothing the scorer may trust.
func deriveConfidence(f feature.Features) feature.Confidence {
	switch {
	case f.ResultIMDBOk:
		return feature.ConfidenceHigh
	case f.ResultGoogleOk:
		return feature.ConfidenceMedium
	default:
		return feature.ConfidenceLow
	}
}

func evidenceRefs(rec evidence.Record) map[string]string {
	refs := make(map[string]string)
	for _, key := range []string{
		evidence.KeyResultIMDB, evidence.KeyResultGoogle,
		evidence.KeyQueryGoogle, evidence.KeyQueryIMDB,
	} {
		src := rec.Source(key)
		if src.Meta != nil && src.Meta.FinalURL != "" {
			refs[key+"_url"] = src.Meta.FinalURL
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return refs
}

func extractAlternatives(rec evidence.Record) []feature.AlternativeCandidate {
	var alts []feature.AlternativeCandidate
	for _, key := range evidence.AltKeys() {
		src := rec.Source(key)
		if src.HTML == "" || src.Meta == nil {
			continue
		}
		page := parseIMDB(src.HTML)
		alt := feature.AlternativeCandidate{
			Name:        page.OfficialTitle,
			ContentType: page.ContentType,
			IMDBVotes:   page.IMDBVotes,
			IMDBRating:  page.IMDBRating,
			Starmeter:   page.Starmeter,
			IMDBURL:     src.Meta.FinalURL,
			Source:      key,
		}
		alts = append(alts, alt)
	}
	return alts
}

// candidatePopularity ranks alternatives with the fixed proxy constants.
// The scorer recomputes popularity from config; this pre-ranking only picks
// which alternative to surface as best_alternative.
func candidatePopularity(alt feature.AlternativeCandidate) float64 {
	const (
		maxVotes     = 1000000.0
		ratingWeight = 0.4
		votesWeight  = 0.6
		starmeterMax = 500000.0
	)
	if alt.ContentType == feature.ContentPerson {
		if alt.Starmeter == nil {
			return 0
		}
		rank := float64(*alt.Starmeter)
		return math.Max(0, 1-math.Min(rank, starmeterMax)/starmeterMax)
	}
	var ratingScore float64
	if alt.IMDBRating != nil {
		ratingScore = math.Max(0, math.Min(*alt.IMDBRating/10, 1))
	}
	var votesScore float64
	if alt.IMDBVotes != nil && *alt.IMDBVotes > 0 {
		votesScore = math.Min(1, math.Log10(float64(*alt.IMDBVotes)+1)/math.Log10(maxVotes))
	}
	return ratingWeight*ratingScore + votesWeight*votesScore
}

// #endregion extract-record

// #region extract-cache

// CacheResult is the outcome of a batch extraction run.
type CacheResult struct {
	Features []feature.Features
	Skipped  []string // per-task skip notes for malformed entries
}

// ExtractCache extracts features for every task directory under cacheDir.
// Task directories are visited in sorted order and malformed entries are
// skipped, so repeated runs over unchanged evidence yield identical output.
func ExtractCache(cacheDir string) (CacheResult, error) {
	dirs, err := evidence.TaskDirs(cacheDir)
	if err != nil {
		return CacheResult{}, err
	}
	var out CacheResult
	for _, dir := range dirs {
		rec, err := evidence.LoadRecord(dir)
		if err != nil {
			if errors.Is(err, evidence.ErrMalformedEntry) {
				out.Skipped = append(out.Skipped, err.Error())
				continue
			}
			return CacheResult{}, err
		}
		feats, err := ExtractRecord(rec)
		if err != nil && !errors.Is(err, ErrExtractionBlocked) {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", rec.Task.TaskID, err))
			continue
		}
		out.Features = append(out.Features, feats)
	}
	return out, nil
}

// #endregion extract-cache
