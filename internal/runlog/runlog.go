package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/hinteval/internal/score"
)

// #region types

// Run is one recorded invocation of the scorer or evaluator.
type Run struct {
	RunID      string
	Kind       string
	InputPath  string
	ConfigYAML string
	Accuracy   *float64
	Tasks      int
	CreatedAt  time.Time
}

// StoredPrediction is one prediction row as persisted for audit.
type StoredPrediction struct {
	RunID     string
	TaskID    string
	Rating    string
	Comment   string
	DebugJSON string
}

// #endregion types

// #region store

// Store persists runs and their predictions in SQLite so every emitted label
// can be traced back to the config and evidence that produced it.
type Store struct {
	db *sql.DB
}

// NewStore creates the runs and predictions tables if needed and returns a store.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.init(); err != nil {
		return nil, fmt.Errorf("init run log: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		input_path TEXT NOT NULL,
		config_yaml TEXT NOT NULL,
		accuracy REAL,
		tasks INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		rating TEXT NOT NULL,
		comment TEXT NOT NULL,
		debug_json TEXT
	)`)
	return err
}

// BeginRun registers a new run and returns it with a fresh id.
func (s *Store) BeginRun(kind, inputPath, configYAML string) (Run, error) {
	run := Run{
		RunID:      uuid.NewString(),
		Kind:       kind,
		InputPath:  inputPath,
		ConfigYAML: configYAML,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, kind, input_path, config_yaml, tasks, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		run.RunID, run.Kind, run.InputPath, run.ConfigYAML, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// RecordPredictions writes the full prediction batch for a run in one
// transaction and updates the run's task count.
func (s *Store) RecordPredictions(runID string, preds []score.Prediction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record predictions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO predictions (run_id, task_id, rating, comment, debug_json) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("record predictions: %w", err)
	}
	defer stmt.Close()

	for _, p := range preds {
		debug, err := json.Marshal(p.Debug)
		if err != nil {
			return fmt.Errorf("marshal debug for task %s: %w", p.TaskID, err)
		}
		if _, err := stmt.Exec(runID, p.TaskID, string(p.Rating), p.Comment, string(debug)); err != nil {
			return fmt.Errorf("record prediction %s: %w", p.TaskID, err)
		}
	}
	if _, err := tx.Exec(`UPDATE runs SET tasks = ? WHERE run_id = ?`, len(preds), runID); err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	return tx.Commit()
}

// SetAccuracy records the agreement achieved by an eval or fit run.
func (s *Store) SetAccuracy(runID string, accuracy float64) error {
	res, err := s.db.Exec(`UPDATE runs SET accuracy = ? WHERE run_id = ?`, accuracy, runID)
	if err != nil {
		return fmt.Errorf("set accuracy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set accuracy: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set accuracy: run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, kind, input_path, config_yaml, accuracy, tasks, created_at
		 FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var accuracy sql.NullFloat64
		var createdAt string
		if err := rows.Scan(&run.RunID, &run.Kind, &run.InputPath, &run.ConfigYAML, &accuracy, &run.Tasks, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if accuracy.Valid {
			v := accuracy.Float64
			run.Accuracy = &v
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Predictions returns every stored prediction of a run in insertion order.
func (s *Store) Predictions(runID string) ([]StoredPrediction, error) {
	rows, err := s.db.Query(
		`SELECT run_id, task_id, rating, comment, debug_json FROM predictions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	defer rows.Close()

	var preds []StoredPrediction
	for rows.Next() {
		var p StoredPrediction
		var debug sql.NullString
		if err := rows.Scan(&p.RunID, &p.TaskID, &p.Rating, &p.Comment, &debug); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.DebugJSON = debug.String
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// #endregion store
