package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/hinteval/internal/config"
	"github.com/danielpatrickdp/hinteval/internal/runlog"
)

// NewRootCmd builds the hinteval command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hinteval",
		Short: "Deterministic search-hint evaluation over cached web evidence",
		Long: `hinteval rates how well a search hint matches user intent.

Evidence is collected once into a local cache; extraction, scoring, and
evaluation run offline over that cache and are fully deterministic: the same
cache and config always produce the same labels.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newCollectCmd(),
		newExtractCmd(),
		newJoinCmd(),
		newScoreCmd(),
		newEvalCmd(),
		newFitCmd(),
		newRunsCmd(),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hinteval: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigOrDefault loads a YAML config, or the shipped defaults when no
// path is given.
func loadConfigOrDefault(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openRunLog opens (or creates) the SQLite run log at path.
func openRunLog(path string) (*runlog.Store, func(), error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	store, err := runlog.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// configYAML renders a config for run-log provenance.
func configYAML(cfg config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	return string(data)
}
