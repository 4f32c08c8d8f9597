package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
	"github.com/danielpatrickdp/hinteval/internal/report"
)

func newScoreCmd() *cobra.Command {
	var features string
	var configPath string
	var out string
	var dbPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a feature file into rated predictions",
		Long: `Rate every feature record and write one prediction per line.

Each prediction carries the label, the one-sentence justification, and the
full debug payload. With --db the run and its predictions are also recorded
in the SQLite run log for later audit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			feats, err := jsonl.Read[feature.Features](features)
			if err != nil {
				return err
			}
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}

			preds := report.Predict(feats, cfg, workers)
			if err := jsonl.Write(out, preds); err != nil {
				return err
			}

			if dbPath != "" {
				store, closeDB, err := openRunLog(dbPath)
				if err != nil {
					return err
				}
				defer closeDB()
				run, err := store.BeginRun("score", features, configYAML(cfg))
				if err != nil {
					return err
				}
				if err := store.RecordPredictions(run.RunID, preds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n", run.RunID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scored: %d\n", len(preds))
			return nil
		},
	}

	cmd.Flags().StringVar(&features, "features", "", "Feature file (JSON lines)")
	cmd.Flags().StringVar(&configPath, "config", "", "Scoring config (YAML); defaults when omitted")
	cmd.Flags().StringVar(&out, "out", "", "Output prediction file (JSON lines)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run log path")
	cmd.Flags().IntVar(&workers, "workers", 4, "Scoring worker count")
	cmd.MarkFlagRequired("features")
	cmd.MarkFlagRequired("out")

	return cmd
}
