package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
)

func newJoinCmd() *cobra.Command {
	var labeled string
	var features string
	var out string
	var labelField string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Attach feature records to labeled examples by task id",
		Long: `Join a labeled example file with a feature file on task_id.

The output is the labeled file with each row's features embedded, ready for
eval and fit. Labeled rows without a matching feature record are kept and
reported; they will be skipped downstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch labelField {
			case "", "gold_rating", "label", "rating":
			default:
				return fmt.Errorf("unknown --label-field %q (use gold_rating, label, or rating)", labelField)
			}

			examples, err := jsonl.Read[feature.LabeledExample](labeled)
			if err != nil {
				return err
			}
			feats, err := jsonl.Read[feature.Features](features)
			if err != nil {
				return err
			}

			byID := make(map[string]feature.Features, len(feats))
			for _, f := range feats {
				byID[f.TaskID] = f
			}

			joined := 0
			for i := range examples {
				if labelField != "" {
					examples[i].GoldRating = pickLabel(examples[i], labelField)
					examples[i].Label = ""
					examples[i].Rating = ""
				}
				if f, ok := byID[examples[i].TaskID]; ok {
					copied := f
					examples[i].Features = &copied
					joined++
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "no features for task %s\n", examples[i].TaskID)
				}
			}

			if err := jsonl.Write(out, examples); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "labeled: %d  joined: %d\n", len(examples), joined)
			return nil
		},
	}

	cmd.Flags().StringVar(&labeled, "labeled", "", "Labeled example file (JSON lines)")
	cmd.Flags().StringVar(&features, "features", "", "Feature file (JSON lines)")
	cmd.Flags().StringVar(&out, "out", "", "Output joined file (JSON lines)")
	cmd.Flags().StringVar(&labelField, "label-field", "", "Force one gold-label field instead of the default precedence")
	cmd.MarkFlagRequired("labeled")
	cmd.MarkFlagRequired("features")
	cmd.MarkFlagRequired("out")

	return cmd
}

func pickLabel(ex feature.LabeledExample, field string) string {
	switch field {
	case "gold_rating":
		return ex.GoldRating
	case "label":
		return ex.Label
	case "rating":
		return ex.Rating
	}
	return ex.Gold()
}
