package fit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/score"
)

// ErrNoTrainingSignal means the labeled set cannot drive a fit: either no
// example carries both features and a recognized gold label, or every usable
// example shares one label, so accuracy cannot separate grid points.
var ErrNoTrainingSignal = errors.New("no training signal: need labeled examples with at least two distinct ratings")

// #region result

// Result is the outcome of one fitting run.
type Result struct {
	Config           config.Config
	Accuracy         float64
	BaselineAccuracy float64
	GridPoints       int
}

// #endregion result

// #region grid

// gridPoint is one candidate parameter combination.
type gridPoint struct {
	altMargin  float64
	perfect    float64
	good       float64
	acceptable float64
	minVotes   int
}

func (p gridPoint) apply(base config.Config) config.Config {
	cfg := base
	cfg.AltMargin = p.altMargin
	cfg.DominanceCutoffs = config.DominanceCutoffs{
		Perfect:    p.perfect,
		Good:       p.good,
		Acceptable: p.acceptable,
	}
	cfg.Dominance.MinVotesForDominance = p.minVotes
	return cfg
}

// candidatesFloat puts the current value first so the incumbent config is
// always grid point zero; fitting can therefore never lose agreement.
func candidatesFloat(current float64, grid []float64) []float64 {
	out := []float64{current}
	for _, v := range grid {
		if !containsFloat(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func candidatesInt(current int, grid []int) []int {
	out := []int{current}
	for _, v := range grid {
		if !containsInt(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsFloat(pool []float64, v float64) bool {
	for _, existing := range pool {
		if existing == v {
			return true
		}
	}
	return false
}

func containsInt(pool []int, v int) bool {
	for _, existing := range pool {
		if existing == v {
			return true
		}
	}
	return false
}

// enumerate expands the full cartesian product in a fixed order, dropping
// combinations whose cutoffs are not monotone.
func enumerate(base config.Config) []gridPoint {
	grid := base.Fit.Grid
	margins := candidatesFloat(base.AltMargin, grid.AltMargin)
	perfects := candidatesFloat(base.DominanceCutoffs.Perfect, grid.DominancePerfect)
	goods := candidatesFloat(base.DominanceCutoffs.Good, grid.DominanceGood)
	acceptables := candidatesFloat(base.DominanceCutoffs.Acceptable, grid.DominanceAcceptable)
	votes := candidatesInt(base.Dominance.MinVotesForDominance, grid.MinVotesForDominance)

	var points []gridPoint
	for _, m := range margins {
		for _, p := range perfects {
			for _, g := range goods {
				for _, a := range acceptables {
					if !(p >= g && g >= a) {
						continue
					}
					for _, v := range votes {
						points = append(points, gridPoint{
							altMargin:  m,
							perfect:    p,
							good:       g,
							acceptable: a,
							minVotes:   v,
						})
					}
				}
			}
		}
	}
	return points
}

// #endregion grid

// #region fit

// Fit searches the configured parameter grid for the combination with the
// highest agreement against the gold labels. The incumbent config is always
// evaluated, so the returned accuracy is at least the baseline; on ties the
// earliest grid point wins, which keeps the incumbent when nothing beats it.
func Fit(examples []feature.LabeledExample, base config.Config, workers int) (Result, error) {
	feats, golds := trainingSignal(examples)
	if len(feats) == 0 || distinctLabels(golds) < 2 {
		return Result{}, ErrNoTrainingSignal
	}
	if workers < 1 {
		workers = 1
	}

	points := enumerate(base)
	accuracies := make([]float64, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				accuracies[idx] = accuracy(feats, golds, points[idx].apply(base))
			}
		}()
	}
	for idx := range points {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	bestIdx := 0
	for idx := 1; idx < len(points); idx++ {
		if accuracies[idx] > accuracies[bestIdx] {
			bestIdx = idx
		}
	}

	fitted := points[bestIdx].apply(base)
	fitted.Fit.LastAccuracy = accuracies[bestIdx]
	if err := fitted.Validate(); err != nil {
		return Result{}, fmt.Errorf("fitted config invalid: %w", err)
	}

	return Result{
		Config:           fitted,
		Accuracy:         accuracies[bestIdx],
		BaselineAccuracy: accuracies[0],
		GridPoints:       len(points),
	}, nil
}

// trainingSignal extracts the examples a fit can learn from: features plus a
// recognized gold label.
func trainingSignal(examples []feature.LabeledExample) ([]feature.Features, []score.Rating) {
	var feats []feature.Features
	var golds []score.Rating
	for _, ex := range examples {
		if ex.Features == nil {
			continue
		}
		gold := score.Rating(ex.Gold())
		if !knownLabel(gold) {
			continue
		}
		feats = append(feats, *ex.Features)
		golds = append(golds, gold)
	}
	return feats, golds
}

// distinctLabels counts the gold labels actually present. A single-label set
// carries no signal: every grid point ties and the search degenerates.
func distinctLabels(golds []score.Rating) int {
	seen := make(map[score.Rating]bool, len(golds))
	for _, gold := range golds {
		seen[gold] = true
	}
	return len(seen)
}

func knownLabel(label score.Rating) bool {
	for _, known := range score.Labels() {
		if known == label {
			return true
		}
	}
	return false
}

// accuracy scores the batch sequentially; fitting parallelizes across grid
// points instead of within one.
func accuracy(feats []feature.Features, golds []score.Rating, cfg config.Config) float64 {
	correct := 0
	for i := range feats {
		if score.Score(feats[i], cfg).Rating == golds[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(feats))
}

// #endregion fit
