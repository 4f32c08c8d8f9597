package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("shipped defaults must validate: %v", err)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// Partial config: only the margin is set.
	if err := os.WriteFile(path, []byte("alt_margin: 0.3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AltMargin != 0.3 {
		t.Fatalf("expected margin 0.3, got %.2f", cfg.AltMargin)
	}
	if cfg.DominanceCutoffs.Perfect != 0.85 {
		t.Fatalf("unset cutoffs must keep defaults, got %.2f", cfg.DominanceCutoffs.Perfect)
	}
	if cfg.Dominance.MinVotesForDominance != 2000 {
		t.Fatalf("unset vote floor must keep the default, got %d", cfg.Dominance.MinVotesForDominance)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	bad := "dominance_cutoffs:\n  perfect: 0.5\n  good: 0.7\n  acceptable: 0.9\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("non-monotone cutoffs must be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fitted.yaml")
	cfg := Default()
	cfg.AltMargin = 0.25

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AltMargin != 0.25 {
		t.Fatalf("round trip lost the margin, got %.2f", loaded.AltMargin)
	}
}

func TestSaveRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Save(path, Default()); err == nil {
		t.Fatal("save must refuse to overwrite an existing file")
	}
}

func TestValidateBounds(t *testing.T) {
	cfg := Default()
	cfg.AltMargin = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative margin must be rejected")
	}

	cfg = Default()
	cfg.FormatGateBucket = "weird"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown format gate bucket must be rejected")
	}

	cfg = Default()
	cfg.Popularity.MaxVotes = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("degenerate max_votes must be rejected")
	}
}
