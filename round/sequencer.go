// round/sequencer.go
package round

import (
	"time"

	"github.com/pitchlab/eartrainer/audio"
)

// StepDuration is how long each reveal step holds before the next begins.
const StepDuration = 2 * time.Second

// Sequencer drives the reveal phase of a round: each option pitch in order,
// then the target, then done. Steps are strictly ordered and time-boxed; a
// step never starts before the previous one's duration has fully elapsed.
type Sequencer struct {
	spec  Spec
	audio audio.Player

	step    int // current step; len(options) is the target step
	elapsed time.Duration
	started bool
	done    bool

	onStep func(step int, target bool)
	onDone func()
}

func NewSequencer(spec Spec, player audio.Player, onStep func(step int, target bool), onDone func()) *Sequencer {
	return &Sequencer{
		spec:   spec,
		audio:  player,
		onStep: onStep,
		onDone: onDone,
	}
}

// Start begins the sequence with option 0. Calling Start twice is a no-op.
func (s *Sequencer) Start() {
	if s.started {
		return
	}
	s.started = true
	s.startStep()
}

// Tick advances the sequence clock. Once the final (target) step's duration
// has elapsed the sequencer signals completion exactly once and ignores all
// further ticks.
func (s *Sequencer) Tick(elapsed time.Duration) {
	if !s.started || s.done {
		return
	}

	s.elapsed += elapsed
	for s.elapsed >= StepDuration {
		s.elapsed -= StepDuration
		s.step++
		if s.step > len(s.spec.Options) {
			s.done = true
			if s.onDone != nil {
				s.onDone()
			}
			return
		}
		s.startStep()
	}
}

// Done reports whether the full sequence has played out.
func (s *Sequencer) Done() bool {
	return s.done
}

// ReplayTarget plays the target pitch again without touching sequence state.
func (s *Sequencer) ReplayTarget() {
	s.audio.PlayPitch(s.spec.Target(), audio.Whole)
}

// ReplayOption plays one option pitch again without touching sequence state.
func (s *Sequencer) ReplayOption(index int) error {
	if index < 0 || index >= len(s.spec.Options) {
		return ErrInvalidOption
	}
	s.audio.PlayPitch(s.spec.Options[index], audio.Whole)
	return nil
}

func (s *Sequencer) startStep() {
	target := s.step == len(s.spec.Options)
	if target {
		s.audio.PlayPitch(s.spec.Target(), audio.Whole)
	} else {
		s.audio.PlayPitch(s.spec.Options[s.step], audio.Whole)
	}
	if s.onStep != nil {
		s.onStep(s.step, target)
	}
}
