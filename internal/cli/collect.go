package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/hinteval/internal/collect"
	"github.com/danielpatrickdp/hinteval/internal/feature"
	"github.com/danielpatrickdp/hinteval/internal/jsonl"
)

func newCollectCmd() *cobra.Command {
	var input string
	var cacheDir string
	var screenshot bool
	var force bool
	var alternatives bool
	var timeoutMS int
	var retries int
	var userAgent string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Cache web evidence for a task file",
		Long: `Fetch the evidence pages of every task into the cache directory.

Each task gets one directory holding task.json plus a metadata/HTML pair per
evidence source. Already-cached sources are skipped unless --force is given,
so an interrupted run can simply be restarted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := jsonl.Read[feature.TaskInput](input)
			if err != nil {
				return err
			}

			browser, err := collect.NewBrowser(cmd.Context(), userAgent, screenshot)
			if err != nil {
				return fmt.Errorf("start browser: %w", err)
			}
			defer browser.Close()

			opts := collect.DefaultOptions(cacheDir)
			opts.Timeout = time.Duration(timeoutMS) * time.Millisecond
			opts.Retries = retries
			opts.Force = force
			opts.Screenshot = screenshot
			opts.CollectAlternatives = alternatives
			opts.UserAgent = userAgent
			collector := collect.New(opts, browser)

			var fetched, skipped, failed int
			for _, task := range tasks {
				res, err := collector.CollectTask(cmd.Context(), task)
				if err != nil {
					return fmt.Errorf("task %s: %w", task.TaskID, err)
				}
				for _, src := range res.Sources {
					switch {
					case src.Skipped:
						skipped++
					case src.Err != nil:
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s/%s: %v\n", task.TaskID, src.Key, src.Err)
					default:
						fetched++
						if src.PageStatus == "blocked" {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s/%s: blocked page\n", task.TaskID, src.Key)
						}
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tasks: %d  fetched: %d  cached: %d  failed: %d\n",
				len(tasks), fetched, skipped, failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Task file (JSON lines)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Evidence cache directory")
	cmd.Flags().BoolVar(&screenshot, "screenshot", false, "Capture a full-page screenshot per source")
	cmd.Flags().BoolVar(&force, "force", false, "Refetch sources that are already cached")
	cmd.Flags().BoolVar(&alternatives, "collect-alternatives", false, "Harvest and fetch competing IMDb pages")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", 30000, "Per-page navigation timeout in milliseconds")
	cmd.Flags().IntVar(&retries, "retries", 2, "Fetch retries per source")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "Browser user agent override")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("cache-dir")

	return cmd
}
