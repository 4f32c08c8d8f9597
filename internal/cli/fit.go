package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/fit"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
)

func newFitCmd() *cobra.Command {
	var train string
	var configIn string
	var configOut string
	var cacheDir string
	var dbPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit scoring thresholds against a labeled training set",
		Long: `Search the configured parameter grid for the thresholds with the best
agreement on the training set.

The input config is never modified and is itself a grid point, so the fitted
config never agrees less than the one you started from. The fitted config is
written to a new file; fitting refuses to overwrite.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := jsonl.Read[feature.LabeledExample](train)
			if err != nil {
				return err
			}
			base, err := loadConfigOrDefault(configIn)
			if err != nil {
				return err
			}
			if cacheDir != "" {
				attachFeatures(examples, cacheDir)
			}

			res, err := fit.Fit(examples, base, workers)
			if err != nil {
				return err
			}
			if err := config.Save(configOut, res.Config); err != nil {
				return err
			}

			if dbPath != "" {
				store, closeDB, err := openRunLog(dbPath)
				if err != nil {
					return err
				}
				defer closeDB()
				run, err := store.BeginRun("fit", train, configYAML(res.Config))
				if err != nil {
					return err
				}
				if err := store.SetAccuracy(run.RunID, res.Accuracy); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n", run.RunID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "grid points: %d  baseline: %.4f  fitted: %.4f\n",
				res.GridPoints, res.BaselineAccuracy, res.Accuracy)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&train, "train", "", "Labeled training file with embedded features (JSON lines)")
	cmd.Flags().StringVar(&configIn, "config-in", "", "Starting config (YAML); defaults when omitted")
	cmd.Flags().StringVar(&configOut, "config-out", "", "Path for the fitted config (must not exist)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Evidence cache for rows without embedded features")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite run log path")
	cmd.Flags().IntVar(&workers, "workers", 4, "Grid evaluation worker count")
	cmd.MarkFlagRequired("train")
	cmd.MarkFlagRequired("config-out")

	return cmd
}
