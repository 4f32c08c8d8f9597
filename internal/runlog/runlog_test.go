package runlog

import (
	"database/sql"
	"testing"

	"github.com/danielpatrickdp/hinteval/internal/score"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestBeginRunAssignsID(t *testing.T) {
	s := newTestStore(t)

	run, err := s.BeginRun("score", "features.jsonl", "alt_margin: 0.2\n")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("expected a run id")
	}

	other, err := s.BeginRun("score", "features.jsonl", "alt_margin: 0.2\n")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if other.RunID == run.RunID {
		t.Fatal("run ids must be unique")
	}
}

func TestRecordAndLoadPredictions(t *testing.T) {
	s := newTestStore(t)
	run, err := s.BeginRun("score", "features.jsonl", "")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	preds := []score.Prediction{
		{TaskID: "t1", Rating: score.RatingPerfect, Comment: "Prefix; prefix completion of the typed text; dominant match."},
		{TaskID: "t2", Rating: score.RatingGood, Comment: "Intent; semantic match to the stated intent; matched entity is niche."},
	}
	if err := s.RecordPredictions(run.RunID, preds); err != nil {
		t.Fatalf("record predictions: %v", err)
	}

	stored, err := s.Predictions(run.RunID)
	if err != nil {
		t.Fatalf("load predictions: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(stored))
	}
	if stored[0].TaskID != "t1" || stored[1].TaskID != "t2" {
		t.Fatalf("insertion order lost: %s, %s", stored[0].TaskID, stored[1].TaskID)
	}
	if stored[0].Rating != string(score.RatingPerfect) {
		t.Fatalf("unexpected rating %q", stored[0].Rating)
	}
	if stored[0].DebugJSON == "" {
		t.Fatal("expected a debug payload")
	}
}

func TestSetAccuracy(t *testing.T) {
	s := newTestStore(t)
	run, err := s.BeginRun("eval", "labeled.jsonl", "")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	if err := s.SetAccuracy(run.RunID, 0.875); err != nil {
		t.Fatalf("set accuracy: %v", err)
	}
	if err := s.SetAccuracy("missing-run", 0.5); err == nil {
		t.Fatal("expected an error for an unknown run")
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Accuracy == nil || *runs[0].Accuracy != 0.875 {
		t.Fatalf("expected accuracy 0.875, got %+v", runs[0].Accuracy)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first, err := s.BeginRun("score", "a.jsonl", "")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	second, err := s.BeginRun("eval", "b.jsonl", "")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != second.RunID && runs[1].RunID != first.RunID {
		t.Fatalf("unexpected order: %s, %s", runs[0].RunID, runs[1].RunID)
	}
}
