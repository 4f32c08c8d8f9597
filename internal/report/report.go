package report

import (
	"fmt"
	"sync"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/score"
)

// #region predict

// Predict scores a feature batch across a worker pool. Output order matches
// input order regardless of worker count, so batch runs stay reproducible.
func Predict(features []feature.Features, cfg config.Config, workers int) []score.Prediction {
	if workers < 1 {
		workers = 1
	}
	preds := make([]score.Prediction, len(features))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				preds[idx] = score.Score(features[idx], cfg)
			}
		}()
	}
	for idx := range features {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return preds
}

// #endregion predict

// #region evaluate

// Row pairs one gold label with the prediction made for it.
type Row struct {
	TaskID  string `json:"task_id"`
	Gold    string `json:"gold"`
	Rating  string `json:"rating"`
	Comment string `json:"comment"`
	Correct bool   `json:"correct"`
}

// Report is the outcome of evaluating one config against a labeled set.
type Report struct {
	Metrics Metrics `json:"metrics"`
	Rows    []Row   `json:"rows"`
	Skipped int     `json:"skipped"`
}

// Evaluate scores every labeled example that carries features and compares
// against its gold label. Examples without features or without a recognized
// gold label are counted as skipped, never as wrong.
func Evaluate(examples []feature.LabeledExample, cfg config.Config, workers int) Report {
	type pending struct {
		example feature.LabeledExample
		feats   feature.Features
	}
	var usable []pending
	skipped := 0
	for _, ex := range examples {
		if ex.Features == nil || !knownLabel(ex.Gold()) {
			skipped++
			continue
		}
		usable = append(usable, pending{example: ex, feats: *ex.Features})
	}

	feats := make([]feature.Features, len(usable))
	for i, p := range usable {
		feats[i] = p.feats
	}
	preds := Predict(feats, cfg, workers)

	rows := make([]Row, len(usable))
	golds := make([]score.Rating, len(usable))
	ratings := make([]score.Rating, len(usable))
	for i, p := range usable {
		gold := score.Rating(p.example.Gold())
		golds[i] = gold
		ratings[i] = preds[i].Rating
		rows[i] = Row{
			TaskID:  preds[i].TaskID,
			Gold:    string(gold),
			Rating:  string(preds[i].Rating),
			Comment: preds[i].Comment,
			Correct: gold == preds[i].Rating,
		}
	}

	return Report{
		Metrics: ComputeMetrics(golds, ratings),
		Rows:    rows,
		Skipped: skipped,
	}
}

func knownLabel(label string) bool {
	for _, known := range score.Labels() {
		if string(known) == label {
			return true
		}
	}
	return false
}

// #endregion evaluate

// #region metrics

// LabelMetrics holds precision/recall/F1 for one rating label.
type LabelMetrics struct {
	Label     score.Rating `json:"label"`
	Support   int          `json:"support"`
	Predicted int          `json:"predicted"`
	Correct   int          `json:"correct"`
	Precision float64      `json:"precision"`
	Recall    float64      `json:"recall"`
	F1        float64      `json:"f1"`
}

// Metrics aggregates agreement between gold labels and predictions.
// Confusion is indexed [gold][predicted] in Labels() order.
type Metrics struct {
	Total     int            `json:"total"`
	Correct   int            `json:"correct"`
	Accuracy  float64        `json:"accuracy"`
	MacroF1   float64        `json:"macro_f1"`
	SupportF1 float64        `json:"support_f1"`
	PerLabel  []LabelMetrics `json:"per_label"`
	Confusion [][]int        `json:"confusion"`
}

// ComputeMetrics derives accuracy, per-label F1, and the confusion matrix.
// MacroF1 averages over every label; SupportF1 averages only over labels
// that actually occur in the gold set, so rare-label zeros cannot mask a
// good fit on the labels that exist.
func ComputeMetrics(golds, preds []score.Rating) Metrics {
	labels := score.Labels()
	index := make(map[score.Rating]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}

	m := Metrics{Total: len(golds), Confusion: confusion}
	for i := range golds {
		gi, gok := index[golds[i]]
		pi, pok := index[preds[i]]
		if gok && pok {
			confusion[gi][pi]++
		}
		if golds[i] == preds[i] {
			m.Correct++
		}
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Total)
	}

	var withSupport int
	var supportF1Sum float64
	for i, label := range labels {
		lm := LabelMetrics{Label: label}
		for j := range labels {
			lm.Support += confusion[i][j]
			lm.Predicted += confusion[j][i]
		}
		lm.Correct = confusion[i][i]
		if lm.Predicted > 0 {
			lm.Precision = float64(lm.Correct) / float64(lm.Predicted)
		}
		if lm.Support > 0 {
			lm.Recall = float64(lm.Correct) / float64(lm.Support)
		}
		if lm.Precision+lm.Recall > 0 {
			lm.F1 = 2 * lm.Precision * lm.Recall / (lm.Precision + lm.Recall)
		}
		m.MacroF1 += lm.F1
		if lm.Support > 0 {
			withSupport++
			supportF1Sum += lm.F1
		}
		m.PerLabel = append(m.PerLabel, lm)
	}
	if len(labels) > 0 {
		m.MacroF1 /= float64(len(labels))
	}
	if withSupport > 0 {
		m.SupportF1 = supportF1Sum / float64(withSupport)
	}
	return m
}

// #endregion metrics

// #region render

// Render writes the human-readable evaluation summary. The layout is stable
// so diffs between runs line up.
func Render(rep Report) string {
	var b []byte
	out := func(format string, args ...any) {
		b = append(b, fmt.Sprintf(format, args...)...)
	}

	out("evaluated: %d  skipped: %d\n", rep.Metrics.Total, rep.Skipped)
	out("accuracy: %.4f  macro-f1: %.4f  support-f1: %.4f\n\n", rep.Metrics.Accuracy, rep.Metrics.MacroF1, rep.Metrics.SupportF1)

	out("%-24s %8s %10s %8s %8s\n", "label", "support", "precision", "recall", "f1")
	for _, lm := range rep.Metrics.PerLabel {
		out("%-24s %8d %10.4f %8.4f %8.4f\n", lm.Label, lm.Support, lm.Precision, lm.Recall, lm.F1)
	}

	out("\nconfusion (rows gold, cols predicted):\n")
	labels := score.Labels()
	out("%-24s", "")
	for i := range labels {
		out(" %4d", i)
	}
	out("\n")
	for i, label := range labels {
		out("%-24s", fmt.Sprintf("%d=%s", i, label))
		for j := range labels {
			out(" %4d", rep.Metrics.Confusion[i][j])
		}
		out("\n")
	}
	return string(b)
}

// #endregion render
