// round/machine.go
package round

import (
	"time"

	"github.com/pitchlab/eartrainer/audio"
	"github.com/pitchlab/eartrainer/level"
)

// Phase is the lifecycle stage of a single round.
type Phase int

const (
	// PhaseRevealing plays the options and the target; no input accepted.
	PhaseRevealing Phase = iota
	// PhaseAccepting runs the countdown and accepts one answer.
	PhaseAccepting
	// PhaseResolved is terminal; the outcome is delivered after a display
	// delay so the resolution cue can play out.
	PhaseResolved
)

// TickGranularity is the countdown resolution the host loop should drive
// Tick at. The machine itself accepts arbitrary elapsed durations.
const TickGranularity = 100 * time.Millisecond

// Display delays between resolution and outcome delivery. The success cue is
// longer than the error cue, so correct answers hold the result longer.
const (
	correctDisplayDelay = 3 * time.Second
	wrongDisplayDelay   = 1500 * time.Millisecond
)

// Callbacks are the machine's outbound signals. Any of them may be nil.
type Callbacks struct {
	// Step fires when a reveal step starts; target is true for the final
	// target step, otherwise step is an option index.
	Step func(step int, target bool)
	// Ready fires once when the reveal completes and input opens.
	Ready func()
	// Complete fires exactly once, after the resolved outcome has been
	// displayed for its delay.
	Complete func(Outcome)
}

// Machine owns the lifecycle of one round: reveal sequencing, countdown,
// pause/resume, answer acceptance and scoring. It is driven entirely by
// Tick and the input methods; it never touches a real clock.
type Machine struct {
	spec  Spec
	cfg   level.Config
	audio audio.Player
	seq   *Sequencer
	cb    Callbacks

	phase     Phase
	remaining time.Duration
	paused    bool

	outcome      Outcome
	displayDelay time.Duration
	delivered    bool
}

func NewMachine(spec Spec, cfg level.Config, player audio.Player, cb Callbacks) *Machine {
	m := &Machine{
		spec:      spec,
		cfg:       cfg,
		audio:     player,
		cb:        cb,
		phase:     PhaseRevealing,
		remaining: cfg.TimePerRound,
	}
	m.seq = NewSequencer(spec, player, cb.Step, m.sequenceComplete)
	return m
}

// Start enters the reveal phase and plays the first option.
func (m *Machine) Start() {
	m.seq.Start()
}

// Tick advances the machine by the elapsed duration. While paused the
// countdown does not move. Ticks arriving after the outcome has been
// delivered are ignored.
func (m *Machine) Tick(elapsed time.Duration) {
	if m.paused {
		return
	}

	switch m.phase {
	case PhaseRevealing:
		m.seq.Tick(elapsed)
	case PhaseAccepting:
		m.remaining -= elapsed
		if m.remaining <= 0 {
			m.remaining = 0
			m.resolve(SelectedNone)
		}
	case PhaseResolved:
		if m.delivered {
			return
		}
		m.displayDelay -= elapsed
		if m.displayDelay <= 0 {
			m.delivered = true
			if m.cb.Complete != nil {
				m.cb.Complete(m.outcome)
			}
		}
	}
}

// Select records the player's answer. Out-of-range indexes are rejected with
// ErrInvalidOption; selections outside the accepting phase or while paused
// are silently ignored.
func (m *Machine) Select(index int) error {
	if index < 0 || index >= len(m.spec.Options) {
		return ErrInvalidOption
	}
	if m.phase != PhaseAccepting || m.paused {
		return nil
	}
	m.resolve(index)
	return nil
}

// Pause freezes the countdown and input. Only honored while accepting input
// and only when the level allows pausing. Pausing twice is the same as
// pausing once.
func (m *Machine) Pause() {
	if !m.cfg.CanPause || m.phase != PhaseAccepting {
		return
	}
	m.paused = true
}

// Unpause resumes the countdown from the exact remaining value.
func (m *Machine) Unpause() {
	m.paused = false
}

// ReplayTarget plays the target again on demand. Gated on the level flag and
// only available while input is open and not paused.
func (m *Machine) ReplayTarget() {
	if !m.cfg.CanReplayTarget || m.phase != PhaseAccepting || m.paused {
		return
	}
	m.seq.ReplayTarget()
}

// ReplayOption plays one option again on demand, under the same gating as
// ReplayTarget.
func (m *Machine) ReplayOption(index int) error {
	if index < 0 || index >= len(m.spec.Options) {
		return ErrInvalidOption
	}
	if !m.cfg.CanReplayOptions || m.phase != PhaseAccepting || m.paused {
		return nil
	}
	return m.seq.ReplayOption(index)
}

func (m *Machine) Phase() Phase             { return m.phase }
func (m *Machine) Paused() bool             { return m.paused }
func (m *Machine) Remaining() time.Duration { return m.remaining }

// sequenceComplete is the playback-complete signal; it opens the input
// window. A late signal after resolution is ignored.
func (m *Machine) sequenceComplete() {
	if m.phase != PhaseRevealing {
		return
	}
	m.phase = PhaseAccepting
	m.remaining = m.cfg.TimePerRound
	if m.cb.Ready != nil {
		m.cb.Ready()
	}
}

// resolve settles the round exactly once and triggers the matching cue.
func (m *Machine) resolve(selected int) {
	if m.phase == PhaseResolved {
		return
	}
	m.phase = PhaseResolved
	m.outcome = Outcome{
		SelectedIndex: selected,
		Correct:       selected == m.spec.TargetIndex,
	}

	if m.outcome.Correct {
		m.audio.PlaySuccessCue()
		m.displayDelay = correctDisplayDelay
	} else {
		m.audio.PlayErrorCue()
		m.displayDelay = wrongDisplayDelay
	}
}
