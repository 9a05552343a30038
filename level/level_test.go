package level

import (
	"testing"
	"time"

	"github.com/pitchlab/eartrainer/pitch"
)

func TestParse_Defaults(t *testing.T) {
	cfg := Parse(10, 30, "notes-differentiation", map[string]string{})

	if cfg.NumRounds != 10 {
		t.Errorf("NumRounds = %d, want 10", cfg.NumRounds)
	}
	if cfg.TimePerRound != 30*time.Second {
		t.Errorf("TimePerRound = %v, want 30s", cfg.TimePerRound)
	}
	if cfg.NumOptions != DefaultNumOptions {
		t.Errorf("NumOptions = %d, want default %d", cfg.NumOptions, DefaultNumOptions)
	}
	if cfg.CanReplayTarget || cfg.CanReplayOptions || cfg.CanPause {
		t.Error("boolean flags should default to false")
	}
	if cfg.ChallengeIdentifier != "notes-differentiation" {
		t.Errorf("ChallengeIdentifier = %q", cfg.ChallengeIdentifier)
	}
}

func TestParse_AllSet(t *testing.T) {
	cfg := Parse(5, 15, "notes-differentiation", map[string]string{
		ParamNumOptions:    "4",
		ParamReplayOptions: "true",
		ParamReplayTarget:  "true",
		ParamCanPause:      "true",
	})

	if cfg.NumOptions != 4 {
		t.Errorf("NumOptions = %d, want 4", cfg.NumOptions)
	}
	if !cfg.CanReplayOptions || !cfg.CanReplayTarget || !cfg.CanPause {
		t.Error("expected all boolean flags true")
	}
}

func TestParse_Malformed(t *testing.T) {
	cfg := Parse(10, 30, "x", map[string]string{
		ParamNumOptions:    "banana",
		ParamReplayOptions: "TRUE", // only the exact string "true" enables a flag
		ParamCanPause:      "1",
	})

	if cfg.NumOptions != DefaultNumOptions {
		t.Errorf("NumOptions = %d, want default on malformed value", cfg.NumOptions)
	}
	if cfg.CanReplayOptions || cfg.CanPause {
		t.Error("non-\"true\" values must parse as false")
	}
}

func TestParse_OptionCountBelowTwo(t *testing.T) {
	cfg := Parse(10, 30, "x", map[string]string{ParamNumOptions: "1"})
	if cfg.NumOptions != DefaultNumOptions {
		t.Errorf("NumOptions = %d, want default for values below 2", cfg.NumOptions)
	}
}

func TestParse_OptionCountClampedToCatalog(t *testing.T) {
	cfg := Parse(10, 30, "x", map[string]string{ParamNumOptions: "30"})
	if cfg.NumOptions != len(pitch.Names) {
		t.Errorf("NumOptions = %d, want catalog size %d", cfg.NumOptions, len(pitch.Names))
	}
}
