package round

import (
	"math/rand"
	"testing"

	"github.com/pitchlab/eartrainer/level"
	"github.com/pitchlab/eartrainer/pitch"
)

func TestGenerator_DistinctOptionsAndValidTarget(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(99)))

	for n := 2; n <= len(pitch.Names); n++ {
		spec, err := gen.Generate(level.Config{NumOptions: n})
		if err != nil {
			t.Fatalf("Generate with %d options failed: %v", n, err)
		}
		if len(spec.Options) != n {
			t.Fatalf("expected %d options, got %d", n, len(spec.Options))
		}
		if spec.TargetIndex < 0 || spec.TargetIndex >= n {
			t.Fatalf("target index %d out of range for %d options", spec.TargetIndex, n)
		}

		seen := make(map[string]bool)
		for _, p := range spec.Options {
			if seen[p] {
				t.Fatalf("duplicate option %s with %d options", p, n)
			}
			seen[p] = true
		}

		if spec.Target() != spec.Options[spec.TargetIndex] {
			t.Error("Target() does not match the indexed option")
		}
	}
}

func TestGenerator_TooManyOptions(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))

	if _, err := gen.Generate(level.Config{NumOptions: len(pitch.Names) + 1}); err == nil {
		t.Error("expected an error when asking for more options than the catalog holds")
	}
}
