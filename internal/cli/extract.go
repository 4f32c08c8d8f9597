package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/extract"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
)

func newExtractCmd() *cobra.Command {
	var cacheDir string
	var out string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract feature records from cached evidence",
		Long: `Parse every cached task directory into one feature record per line.

Extraction is pure: running it twice over an unchanged cache produces
byte-identical output. Malformed cache entries are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := extract.ExtractCache(cacheDir)
			if err != nil {
				return err
			}
			for _, note := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", note)
			}
			if err := jsonl.Write(out, res.Features); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted: %d  skipped: %d\n", len(res.Features), len(res.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Evidence cache directory")
	cmd.Flags().StringVar(&out, "out", "", "Output feature file (JSON lines)")
	cmd.MarkFlagRequired("cache-dir")
	cmd.MarkFlagRequired("out")

	return cmd
}
