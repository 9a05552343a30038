// round/round.go
package round

import (
	"errors"
	"math/rand"

	"github.com/pitchlab/eartrainer/level"
	"github.com/pitchlab/eartrainer/pitch"
)

// SelectedNone is the outcome sentinel for a round that timed out with no
// selection.
const SelectedNone = -1

var ErrInvalidOption = errors.New("round: option index out of range")

// Spec is one round's question: the candidate pitches and which of them is
// the target. Created fresh for every round and discarded when it ends.
type Spec struct {
	Options     []string
	TargetIndex int
}

// Target returns the pitch the player must identify.
func (s Spec) Target() string {
	return s.Options[s.TargetIndex]
}

// Outcome is the immutable result of a resolved round.
type Outcome struct {
	SelectedIndex int // SelectedNone on timeout
	Correct       bool
}

// Generator produces round specs from a difficulty configuration. It is a
// pure function of its random source.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate draws cfg.NumOptions distinct pitches from the catalog and picks
// the target uniformly among them.
func (g *Generator) Generate(cfg level.Config) (Spec, error) {
	options, err := pitch.Draw(cfg.NumOptions, g.rng)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		Options:     options,
		TargetIndex: g.rng.Intn(len(options)),
	}, nil
}
