// pitch/pitch.go
package pitch

import (
	"errors"
	"math/rand"
)

// Names is the fixed catalog of pitches used as round stimuli, two chromatic
// octaves from C4 to B5 in ascending order.
var Names = []string{
	"C4", "C#4", "D4", "D#4", "E4", "F4", "F#4", "G4", "G#4", "A4", "A#4", "B4",
	"C5", "C#5", "D5", "D#5", "E5", "F5", "F#5", "G5", "G#5", "A5", "A#5", "B5",
}

// ErrInvalidCount is returned when a draw asks for fewer than one pitch or
// more pitches than the catalog holds.
var ErrInvalidCount = errors.New("pitch: draw count out of range")

// Draw returns n distinct pitches chosen uniformly at random without
// replacement. The catalog itself is never modified.
func Draw(n int, rng *rand.Rand) ([]string, error) {
	if n < 1 || n > len(Names) {
		return nil, ErrInvalidCount
	}

	perm := rng.Perm(len(Names))
	drawn := make([]string, n)
	for i := 0; i < n; i++ {
		drawn[i] = Names[perm[i]]
	}
	return drawn, nil
}
