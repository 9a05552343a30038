// level/level.go
package level

import (
	"errors"
	"strconv"
	"time"

	"github.com/pitchlab/eartrainer/pitch"
)

// Parameter identifiers as stored in the parameters table. Values arrive as
// strings and are parsed once at match start.
const (
	ParamNumOptions    = "numero-de-opcoes"
	ParamReplayOptions = "replay-de-opcoes"
	ParamReplayTarget  = "replay-de-nota-alvo"
	ParamCanPause      = "pode-pausar"
)

// DefaultNumOptions applies when the option-count parameter is absent or
// unparsable.
const DefaultNumOptions = 2

// ErrNotFound is returned by a Source when no level exists for the given ID.
var ErrNotFound = errors.New("level: not found")

// Config is the difficulty configuration attached to a level, immutable for
// the duration of a match.
type Config struct {
	NumRounds           int
	TimePerRound        time.Duration
	NumOptions          int
	CanReplayTarget     bool
	CanReplayOptions    bool
	CanPause            bool
	ChallengeIdentifier string
}

// Source resolves a level ID to its parsed difficulty configuration.
type Source interface {
	DifficultyConfig(levelID int64) (Config, error)
}

// Parse builds a Config from a level's stored columns and its loosely-typed
// identifier->value parameter map. Missing or malformed boolean parameters
// default to false; a missing or malformed option count defaults to
// DefaultNumOptions, and a count above the pitch catalog size is clamped to
// the catalog size so a stored level can never ask for more pitches than
// exist.
func Parse(numRounds, timePerRoundSec int, challengeIdentifier string, params map[string]string) Config {
	cfg := Config{
		NumRounds:           numRounds,
		TimePerRound:        time.Duration(timePerRoundSec) * time.Second,
		NumOptions:          DefaultNumOptions,
		ChallengeIdentifier: challengeIdentifier,
	}

	if raw, ok := params[ParamNumOptions]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 2 {
			cfg.NumOptions = n
		}
	}
	if cfg.NumOptions > len(pitch.Names) {
		cfg.NumOptions = len(pitch.Names)
	}
	cfg.CanReplayOptions = params[ParamReplayOptions] == "true"
	cfg.CanReplayTarget = params[ParamReplayTarget] == "true"
	cfg.CanPause = params[ParamCanPause] == "true"

	return cfg
}
