package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/evidence"
	"github.com/danielpatrickdp/hinteval/internal/extract"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
	"github.com/danielpatrickdp/hinteval/internal/report"
)

func newEvalCmd() *cobra.Command {
	var labeled string
	var configPath string
	var cacheDir string
	var dbPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Compare predictions against gold labels",
		Long: `Score a labeled example file and report agreement with the gold labels.

Rows must carry embedded features (see join); with --cache-dir, features for
rows that lack them are extracted from the evidence cache on the fly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := jsonl.Read[feature.LabeledExample](labeled)
			if err != nil {
				return err
			}
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}
			if cacheDir != "" {
				attachFeatures(examples, cacheDir)
			}

			rep := report.Evaluate(examples, cfg, workers)
			fmt.Fprint(cmd.OutOrStdout(), report.Render(rep))

			if dbPath != "" {
				store, closeDB, err := openRunLog(dbPath)
				if err != nil {
					return err
				}
				defer closeDB()
				run, err := store.BeginRun("eval", labeled, configYAML(cfg))
				if err != nil {
					return err
				}
				if err := store.SetAccuracy(run.RunID, rep.Metrics.Accuracy); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n", run.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&labeled, "labeled", "", "Labeled example file with embedded features (JSON lines)")
	cmd.Flags().StringVar(&configPath, "config", "", "Scoring config (YAML); defaults when omitted")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Evidence cache for rows without embedded features")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run log path")
	cmd.Flags().IntVar(&workers, "workers", 4, "Scoring worker count")
	cmd.MarkFlagRequired("labeled")

	return cmd
}

// attachFeatures fills missing features from the evidence cache. Tasks whose
// cache entry is absent or malformed simply stay featureless and are skipped
// by the evaluator.
func attachFeatures(examples []feature.LabeledExample, cacheDir string) {
	for i := range examples {
		if examples[i].Features != nil || examples[i].TaskID == "" {
			continue
		}
		rec, err := evidence.LoadRecord(evidence.TaskDir(cacheDir, examples[i].TaskID))
		if err != nil {
			continue
		}
		feats, err := extract.ExtractRecord(rec)
		if err != nil && !errors.Is(err, extract.ErrExtractionBlocked) {
			continue
		}
		examples[i].Features = &feats
	}
}
