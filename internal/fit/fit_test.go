package fit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/score"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// contestedFeatures produces a prefix task whose dominance ratio lands
// around 0.74: below the shipped Perfect cutoff, above Good.
func contestedFeatures(id string) *feature.Features {
	return &feature.Features{
		TaskID:        id,
		Query:         "incep",
		Result:        "Inception",
		OfficialTitle: "Inception",
		ContentType:   feature.ContentMovie,
		Confidence:    feature.ConfidenceHigh,
		IMDBVotes:     intPtr(500000),
		IMDBRating:    floatPtr(8.0),
		Alternatives: []feature.AlternativeCandidate{
			{Name: "Inception: The Cobol Job", ContentType: feature.ContentMovie, IMDBVotes: intPtr(30), IMDBRating: floatPtr(4.0), Source: "alt_imdb_1"},
		},
	}
}

// unscorableFeatures rates Problem: Other under every threshold combination,
// so it adds a second gold label without coupling a test to the grid.
func unscorableFeatures(id string) *feature.Features {
	return &feature.Features{
		TaskID:     id,
		Query:      "someth",
		Confidence: feature.ConfidenceLow,
	}
}

func TestFitErrNoTrainingSignal(t *testing.T) {
	examples := []feature.LabeledExample{
		{TaskID: "a", GoldRating: "Perfect"}, // no features
		{TaskID: "b", GoldRating: "Excellent", Features: contestedFeatures("b")}, // unknown label
	}

	_, err := Fit(examples, config.Default(), 1)

	if !errors.Is(err, ErrNoTrainingSignal) {
		t.Fatalf("expected ErrNoTrainingSignal, got %v", err)
	}
}

func TestFitSingleLabelSetHasNoSignal(t *testing.T) {
	// Every usable example shares one rating: accuracy is flat across the
	// grid, so fitting must refuse instead of declaring a trivial optimum.
	examples := []feature.LabeledExample{
		{TaskID: "a", GoldRating: string(score.RatingGood), Features: contestedFeatures("a")},
		{TaskID: "b", GoldRating: string(score.RatingGood), Features: contestedFeatures("b")},
	}

	_, err := Fit(examples, config.Default(), 1)

	if !errors.Is(err, ErrNoTrainingSignal) {
		t.Fatalf("expected ErrNoTrainingSignal for a single-label set, got %v", err)
	}
}

func TestFitImprovesOnTrainableGap(t *testing.T) {
	base := config.Default()
	base.Fit.Grid = config.FitGrid{
		DominancePerfect: []float64{0.70},
	}
	// Under the shipped cutoffs the contested task rates Good; lowering the
	// Perfect cutoff to 0.70 closes the gap to the gold label.
	examples := []feature.LabeledExample{
		{TaskID: "a", GoldRating: string(score.RatingPerfect), Features: contestedFeatures("a")},
		{TaskID: "b", GoldRating: string(score.RatingProblemOther), Features: unscorableFeatures("b")},
	}

	res, err := Fit(examples, base, 2)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if res.BaselineAccuracy != 0.5 {
		t.Fatalf("expected baseline 0.5, got %.4f", res.BaselineAccuracy)
	}
	if res.Accuracy != 1 {
		t.Fatalf("expected fitted accuracy 1, got %.4f", res.Accuracy)
	}
	if res.Config.DominanceCutoffs.Perfect != 0.70 {
		t.Fatalf("expected fitted Perfect cutoff 0.70, got %.2f", res.Config.DominanceCutoffs.Perfect)
	}
	if res.Config.Fit.LastAccuracy != 1 {
		t.Fatalf("fitted config must record its accuracy, got %.4f", res.Config.Fit.LastAccuracy)
	}
}

func TestFitNeverRegresses(t *testing.T) {
	base := config.Default()
	base.Fit.Grid = config.FitGrid{
		AltMargin:            []float64{0.9},
		DominancePerfect:     []float64{0.99},
		MinVotesForDominance: []int{999999},
	}
	// The incumbent already fits both examples; wild grid values must not win.
	examples := []feature.LabeledExample{
		{TaskID: "a", GoldRating: string(score.RatingGood), Features: contestedFeatures("a")},
		{TaskID: "b", GoldRating: string(score.RatingProblemOther), Features: unscorableFeatures("b")},
	}

	res, err := Fit(examples, base, 4)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if res.Accuracy < res.BaselineAccuracy {
		t.Fatalf("fitted accuracy %.4f below baseline %.4f", res.Accuracy, res.BaselineAccuracy)
	}
	if res.Accuracy != 1 {
		t.Fatalf("incumbent config already fits, expected accuracy 1, got %.4f", res.Accuracy)
	}
	if res.Config.AltMargin != base.AltMargin {
		t.Fatalf("tie must keep the incumbent margin %.2f, got %.2f", base.AltMargin, res.Config.AltMargin)
	}
}

func TestFitDeterministic(t *testing.T) {
	base := config.Default()
	base.Fit.Grid = config.FitGrid{
		AltMargin:        []float64{0.1, 0.3},
		DominancePerfect: []float64{0.70, 0.80},
		DominanceGood:    []float64{0.60, 0.65},
	}
	examples := []feature.LabeledExample{
		{TaskID: "a", GoldRating: string(score.RatingPerfect), Features: contestedFeatures("a")},
		{TaskID: "b", GoldRating: string(score.RatingGood), Features: contestedFeatures("b")},
	}

	first, err := Fit(examples, base, 4)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	second, err := Fit(examples, base, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if !reflect.DeepEqual(first.Config, second.Config) {
		t.Fatalf("fit is not deterministic:\n%+v\n%+v", first.Config, second.Config)
	}
	if first.Accuracy != second.Accuracy {
		t.Fatalf("accuracy differs: %.4f vs %.4f", first.Accuracy, second.Accuracy)
	}
}

func TestEnumerateSkipsNonMonotoneCutoffs(t *testing.T) {
	base := config.Default()
	base.Fit.Grid = config.FitGrid{
		DominancePerfect:    []float64{0.50},
		DominanceAcceptable: []float64{0.90},
	}

	for _, p := range enumerate(base) {
		if !(p.perfect >= p.good && p.good >= p.acceptable) {
			t.Fatalf("non-monotone grid point survived: %+v", p)
		}
	}
}
