package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/runlog"
)

func newRunsCmd() *cobra.Command {
	var dbPath string
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the run log",
		Long: `List recorded runs, or dump one run's predictions with --run.

The dump replays exactly what was emitted at the time, debug payload
included, so a disputed label can be audited without re-scoring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openRunLog(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			if runID != "" {
				return dumpRun(cmd, store, runID)
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%-36s %-6s %-20s %6s %9s  %s\n",
				"run", "kind", "created", "tasks", "accuracy", "input")
			for _, run := range runs {
				accuracy := "-"
				if run.Accuracy != nil {
					accuracy = fmt.Sprintf("%.4f", *run.Accuracy)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s %-6s %-20s %6d %9s  %s\n",
					run.RunID, run.Kind, run.CreatedAt.Format(time.RFC3339), run.Tasks, accuracy, run.InputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run log path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Dump this run's predictions as JSON lines")
	cmd.MarkFlagRequired("db")

	return cmd
}

func dumpRun(cmd *cobra.Command, store *runlog.Store, runID string) error {
	preds, err := store.Predictions(runID)
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		return fmt.Errorf("run %s has no predictions", runID)
	}
	for _, p := range preds {
		row := map[string]any{
			"task_id": p.TaskID,
			"rating":  p.Rating,
			"comment": p.Comment,
		}
		if p.DebugJSON != "" {
			row["debug"] = json.RawMessage(p.DebugJSON)
		}
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal prediction %s: %w", p.TaskID, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(line))
	}
	return nil
}
