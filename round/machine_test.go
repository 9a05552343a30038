package round

import (
	"testing"
	"time"

	"github.com/pitchlab/eartrainer/level"
)

// recordingPlayer captures everything the machine plays.
type recordingPlayer struct {
	pitches   []string
	successes int
	errors    int
}

func (r *recordingPlayer) PlayPitch(name, duration string) { r.pitches = append(r.pitches, name) }
func (r *recordingPlayer) PlaySuccessCue()                 { r.successes++ }
func (r *recordingPlayer) PlayErrorCue()                   { r.errors++ }

type machineFixture struct {
	m       *Machine
	player  *recordingPlayer
	steps   []int
	targets int
	ready   int
	done    []Outcome
}

func newFixture(spec Spec, cfg level.Config) *machineFixture {
	f := &machineFixture{player: &recordingPlayer{}}
	f.m = NewMachine(spec, cfg, f.player, Callbacks{
		Step: func(step int, target bool) {
			if target {
				f.targets++
			} else {
				f.steps = append(f.steps, step)
			}
		},
		Ready:    func() { f.ready++ },
		Complete: func(out Outcome) { f.done = append(f.done, out) },
	})
	return f
}

func defaultConfig() level.Config {
	return level.Config{
		NumRounds:        10,
		TimePerRound:     30 * time.Second,
		NumOptions:       2,
		CanReplayTarget:  true,
		CanReplayOptions: true,
		CanPause:         true,
	}
}

func threeNoteSpec() Spec {
	return Spec{Options: []string{"C4", "E4", "G4"}, TargetIndex: 1}
}

// reveal drives the machine through the full reveal phase.
func (f *machineFixture) reveal(t *testing.T, numOptions int) {
	t.Helper()
	f.m.Start()
	for i := 0; i <= numOptions; i++ {
		f.m.Tick(StepDuration)
	}
	if f.m.Phase() != PhaseAccepting {
		t.Fatalf("expected accepting phase after reveal, got %v", f.m.Phase())
	}
}

func TestMachine_RevealOrderAndReady(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.m.Start()

	if f.m.Phase() != PhaseRevealing {
		t.Fatal("machine should start in the revealing phase")
	}

	// Option steps, then the target, then ready.
	for i := 0; i <= 3; i++ {
		f.m.Tick(StepDuration)
	}

	if len(f.steps) != 3 || f.steps[0] != 0 || f.steps[1] != 1 || f.steps[2] != 2 {
		t.Errorf("option steps out of order: %v", f.steps)
	}
	if f.targets != 1 {
		t.Errorf("expected exactly one target step, got %d", f.targets)
	}
	if f.ready != 1 {
		t.Errorf("expected ready to fire once, got %d", f.ready)
	}

	want := []string{"C4", "E4", "G4", "E4"} // options in order, then the target
	if len(f.player.pitches) != len(want) {
		t.Fatalf("played pitches %v, want %v", f.player.pitches, want)
	}
	for i := range want {
		if f.player.pitches[i] != want[i] {
			t.Fatalf("played pitches %v, want %v", f.player.pitches, want)
		}
	}
}

func TestMachine_SelectDuringRevealIgnored(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.m.Start()

	if err := f.m.Select(1); err != nil {
		t.Fatalf("select during reveal should be a silent no-op, got %v", err)
	}
	if f.m.Phase() != PhaseRevealing {
		t.Error("select during reveal must not resolve the round")
	}
}

func TestMachine_CorrectSelection(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	if err := f.m.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if f.m.Phase() != PhaseResolved {
		t.Fatal("expected resolved phase after selection")
	}
	if f.player.successes != 1 || f.player.errors != 0 {
		t.Errorf("expected one success cue, got %d success %d error", f.player.successes, f.player.errors)
	}

	// Outcome holds for the success display delay.
	f.m.Tick(2900 * time.Millisecond)
	if len(f.done) != 0 {
		t.Fatal("outcome delivered before the display delay elapsed")
	}
	f.m.Tick(100 * time.Millisecond)
	if len(f.done) != 1 {
		t.Fatal("outcome not delivered after the display delay")
	}
	if !f.done[0].Correct || f.done[0].SelectedIndex != 1 {
		t.Errorf("unexpected outcome %+v", f.done[0])
	}

	// Late ticks must not re-deliver.
	f.m.Tick(10 * time.Second)
	if len(f.done) != 1 {
		t.Error("outcome delivered more than once")
	}
}

func TestMachine_IncorrectSelection(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	f.m.Select(0)
	if f.player.errors != 1 {
		t.Errorf("expected error cue, got %d", f.player.errors)
	}

	f.m.Tick(1500 * time.Millisecond)
	if len(f.done) != 1 {
		t.Fatal("outcome not delivered after the error display delay")
	}
	if f.done[0].Correct {
		t.Error("wrong selection reported as correct")
	}
}

func TestMachine_Timeout(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	for i := 0; i < 300; i++ { // 30s at 100ms granularity
		f.m.Tick(TickGranularity)
	}

	if f.m.Phase() != PhaseResolved {
		t.Fatal("countdown reaching zero must resolve the round")
	}
	if f.m.Remaining() != 0 {
		t.Errorf("remaining = %v after timeout", f.m.Remaining())
	}
	if f.player.errors != 1 {
		t.Errorf("timeout should play the error cue once, got %d", f.player.errors)
	}

	f.m.Tick(1500 * time.Millisecond)
	if len(f.done) != 1 {
		t.Fatal("timeout outcome not delivered")
	}
	if f.done[0].SelectedIndex != SelectedNone || f.done[0].Correct {
		t.Errorf("unexpected timeout outcome %+v", f.done[0])
	}
}

func TestMachine_SelectAfterResolveIgnored(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	f.m.Select(1)
	if err := f.m.Select(0); err != nil {
		t.Fatalf("late select should be a silent no-op, got %v", err)
	}
	f.m.Tick(3 * time.Second)
	if len(f.done) != 1 || !f.done[0].Correct {
		t.Errorf("late selection corrupted the outcome: %+v", f.done)
	}
}

func TestMachine_SelectOutOfRange(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	if err := f.m.Select(3); err != ErrInvalidOption {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if err := f.m.Select(-2); err != ErrInvalidOption {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
	if f.m.Phase() != PhaseAccepting {
		t.Error("invalid input must not resolve the round")
	}
}

func TestMachine_PauseFreezesCountdown(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.reveal(t, 3)

	f.m.Tick(5 * time.Second)
	before := f.m.Remaining()

	f.m.Pause()
	f.m.Pause() // pausing twice behaves like pausing once
	for i := 0; i < 100; i++ {
		f.m.Tick(TickGranularity)
	}
	if f.m.Remaining() != before {
		t.Errorf("countdown moved while paused: %v -> %v", before, f.m.Remaining())
	}

	if err := f.m.Select(1); err != nil {
		t.Fatalf("select while paused should be a silent no-op, got %v", err)
	}
	if f.m.Phase() != PhaseAccepting {
		t.Error("selection while paused must be rejected")
	}

	f.m.Unpause()
	if f.m.Remaining() != before {
		t.Errorf("remaining changed across pause/resume: %v -> %v", before, f.m.Remaining())
	}
	f.m.Tick(TickGranularity)
	if f.m.Remaining() != before-TickGranularity {
		t.Error("countdown did not resume after unpause")
	}
}

func TestMachine_PauseDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.CanPause = false
	f := newFixture(threeNoteSpec(), cfg)
	f.reveal(t, 3)

	before := f.m.Remaining()
	f.m.Pause()
	f.m.Tick(TickGranularity)
	if f.m.Remaining() != before-TickGranularity {
		t.Error("pause must be a no-op when the level disallows it")
	}
}

func TestMachine_ReplayGating(t *testing.T) {
	f := newFixture(threeNoteSpec(), defaultConfig())
	f.m.Start()

	played := len(f.player.pitches)
	f.m.ReplayTarget() // not yet accepting
	if len(f.player.pitches) != played {
		t.Error("replay during reveal must be rejected")
	}

	f.reveal(t, 3)
	played = len(f.player.pitches)

	f.m.ReplayTarget()
	if len(f.player.pitches) != played+1 || f.player.pitches[played] != "E4" {
		t.Error("target replay did not play the target pitch")
	}

	if err := f.m.ReplayOption(0); err != nil {
		t.Fatalf("ReplayOption failed: %v", err)
	}
	if f.player.pitches[len(f.player.pitches)-1] != "C4" {
		t.Error("option replay did not play the requested option")
	}

	if err := f.m.ReplayOption(9); err != ErrInvalidOption {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}

	f.m.Pause()
	played = len(f.player.pitches)
	f.m.ReplayTarget()
	f.m.ReplayOption(1)
	if len(f.player.pitches) != played {
		t.Error("replays while paused must be rejected")
	}
}

func TestMachine_ReplayFlagsOff(t *testing.T) {
	cfg := defaultConfig()
	cfg.CanReplayTarget = false
	cfg.CanReplayOptions = false
	f := newFixture(threeNoteSpec(), cfg)
	f.reveal(t, 3)

	played := len(f.player.pitches)
	f.m.ReplayTarget()
	f.m.ReplayOption(0)
	if len(f.player.pitches) != played {
		t.Error("replays must be gated by the level flags")
	}
}
