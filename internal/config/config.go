package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region format-gate-bucket

// FormatGateBucket selects which rating bucket the format gate maps to.
// The labeling convention differs per deployment; it must be fixed once per
// dataset and never inferred.
type FormatGateBucket string

const (
	BucketSpelling FormatGateBucket = "spelling"
	BucketOther    FormatGateBucket = "other"
)

// #endregion format-gate-bucket

// #region config

// DominanceCutoffs are the dominance-ratio floors per rating tier.
type DominanceCutoffs struct {
	Perfect    float64 `yaml:"perfect"`
	Good       float64 `yaml:"good"`
	Acceptable float64 `yaml:"acceptable"`
}

// Dominance holds the stability guard for the dominance calculation.
type Dominance struct {
	MinVotesForDominance int `yaml:"min_votes_for_dominance"`
}

// Popularity holds the constants of the popularity proxy.
type Popularity struct {
	MaxVotes     float64 `yaml:"max_votes"`
	RatingWeight float64 `yaml:"rating_weight"`
	VotesWeight  float64 `yaml:"votes_weight"`
	StarmeterMax float64 `yaml:"starmeter_max"`
}

// IncompleteTitle holds the upgrade thresholds for truncated-subtitle hints.
type IncompleteTitle struct {
	UpgradeDominance float64 `yaml:"upgrade_dominance"`
	UpgradeMatch     float64 `yaml:"upgrade_match"`
}

// FitGrid lists the candidate values the fitter explores per parameter.
// Empty lists mean "keep the current value".
type FitGrid struct {
	AltMargin            []float64 `yaml:"alt_margin"`
	DominancePerfect     []float64 `yaml:"dominance_perfect"`
	DominanceGood        []float64 `yaml:"dominance_good"`
	DominanceAcceptable  []float64 `yaml:"dominance_acceptable"`
	MinVotesForDominance []int     `yaml:"min_votes_for_dominance"`
}

// Fit carries the fitter search space and the accuracy achieved by the last fit.
type Fit struct {
	Grid         FitGrid `yaml:"grid"`
	LastAccuracy float64 `yaml:"last_accuracy,omitempty"`
}

// Config is the full scoring configuration. It is loaded once per run and
// passed by value through the pipeline; fitting produces a new Config and
// never mutates the one it was given.
type Config struct {
	AltMargin        float64          `yaml:"alt_margin"`
	DominanceCutoffs DominanceCutoffs `yaml:"dominance_cutoffs"`
	Dominance        Dominance        `yaml:"dominance"`
	CategoryScore    float64          `yaml:"category_score"`
	NichePopularity  float64          `yaml:"niche_popularity"`
	FormatGateBucket FormatGateBucket `yaml:"format_gate_bucket"`
	ConcernsKeywords []string         `yaml:"concerns_keywords"`
	Popularity       Popularity       `yaml:"popularity"`
	IncompleteTitle  IncompleteTitle  `yaml:"incomplete_title"`
	Fit              Fit              `yaml:"fit,omitempty"`
}

// #endregion config

// #region defaults

// Default returns the shipped scoring configuration.
func Default() Config {
	return Config{
		AltMargin: 0.2,
		DominanceCutoffs: DominanceCutoffs{
			Perfect:    0.85,
			Good:       0.70,
			Acceptable: 0.55,
		},
		Dominance: Dominance{
			MinVotesForDominance: 2000,
		},
		CategoryScore:    0.35,
		NichePopularity:  0.2,
		FormatGateBucket: BucketOther,
		Popularity: Popularity{
			MaxVotes:     1000000,
			RatingWeight: 0.4,
			VotesWeight:  0.6,
			StarmeterMax: 500000,
		},
		IncompleteTitle: IncompleteTitle{
			UpgradeDominance: 0.85,
			UpgradeMatch:     0.9,
		},
	}
}

// #endregion defaults

// #region load-save

// Load reads a YAML config file and fills unset sections with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML to a new file. It refuses to overwrite
// an existing file so a fitted config can never clobber its input.
func Save(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// #endregion load-save

// #region validate

// Validate checks cross-field invariants the scorer relies on.
func (c Config) Validate() error {
	dc := c.DominanceCutoffs
	if !(dc.Perfect >= dc.Good && dc.Good >= dc.Acceptable) {
		return fmt.Errorf("dominance_cutoffs must be monotone: perfect=%.2f good=%.2f acceptable=%.2f",
			dc.Perfect, dc.Good, dc.Acceptable)
	}
	if c.AltMargin < 0 {
		return fmt.Errorf("alt_margin must be non-negative, got %.2f", c.AltMargin)
	}
	if c.Dominance.MinVotesForDominance < 0 {
		return fmt.Errorf("min_votes_for_dominance must be non-negative, got %d", c.Dominance.MinVotesForDominance)
	}
	switch c.FormatGateBucket {
	case BucketSpelling, BucketOther, "":
	default:
		return fmt.Errorf("format_gate_bucket must be %q or %q, got %q", BucketSpelling, BucketOther, c.FormatGateBucket)
	}
	if c.Popularity.MaxVotes <= 1 {
		return fmt.Errorf("popularity.max_votes must exceed 1, got %.0f", c.Popularity.MaxVotes)
	}
	return nil
}

// #endregion validate
