// match/controller.go
package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/pitchlab/eartrainer/audio"
	"github.com/pitchlab/eartrainer/level"
	"github.com/pitchlab/eartrainer/logger"
	"github.com/pitchlab/eartrainer/recovery"
	"github.com/pitchlab/eartrainer/round"
)

// State is the lifecycle stage of a whole match.
type State int

const (
	NotStarted State = iota
	InProgress
	Finished
)

var (
	// ErrNoLevel is returned when a match is started without a chosen level.
	ErrNoLevel = errors.New("match: no level selected")
	// ErrConfigMissing is returned when the level/parameter lookup yields
	// nothing; no partial match state is created.
	ErrConfigMissing = errors.New("match: level configuration missing")
	// ErrAlreadyStarted rejects starting or resuming a controller twice.
	ErrAlreadyStarted = errors.New("match: already started")
)

// Sink persists completed matches. It is called only at match completion,
// never for abandoned matches: record creation is deferred until the final
// round so unfinished matches never appear as rows.
type Sink interface {
	CreateMatchRecord(userID, levelID int64) (matchID int64, err error)
	FinalizeMatch(matchID int64, totalCorrect, totalIncorrect, totalRounds int) error
}

// Progress is the running score of the active match. While a match is in
// progress TotalCorrect+TotalIncorrect == CurrentRound-1.
type Progress struct {
	CurrentRound   int
	TotalRounds    int
	TotalCorrect   int
	TotalIncorrect int
}

// Callbacks are the controller's outbound signals; any may be nil.
type Callbacks struct {
	RoundStarted  func(roundNumber int, spec round.Spec)
	SequenceStep  func(step int, target bool)
	RoundReady    func()
	RoundResolved func(outcome round.Outcome, progress Progress)
	SnapshotSaved func(snap recovery.Snapshot)
	// Finished fires once when the last round resolves. persistErr is
	// non-nil when the final write failed; the match still ends and the
	// recovery snapshot stays cleared.
	Finished func(progress Progress, matchID int64, persistErr error)
}

// Controller chains rounds into a match: it accumulates score, mirrors
// progress into the recovery store after every round, and finalizes the
// match against the persistence sink. It is single-actor; the host drives it
// through Tick and the input methods from one logical goroutine.
type Controller struct {
	levels level.Source
	store  *recovery.Store
	sink   Sink
	player audio.Player
	gen    *round.Generator
	cb     Callbacks

	state State
	cfg   level.Config

	userID        int64
	levelID       int64
	challengeID   int64
	challengeName string

	progress Progress
	current  *round.Machine
}

func NewController(levels level.Source, store *recovery.Store, sink Sink, player audio.Player, gen *round.Generator, cb Callbacks) *Controller {
	return &Controller{
		levels: levels,
		store:  store,
		sink:   sink,
		player: player,
		gen:    gen,
		cb:     cb,
	}
}

// Start begins a fresh match on the given level and spawns round 1.
func (c *Controller) Start(userID, challengeID, levelID int64, challengeName string) error {
	if c.state != NotStarted {
		return ErrAlreadyStarted
	}
	if levelID <= 0 {
		return ErrNoLevel
	}

	cfg, err := c.levels.DifficultyConfig(levelID)
	if err != nil {
		if errors.Is(err, level.ErrNotFound) {
			return ErrConfigMissing
		}
		return fmt.Errorf("match: level lookup: %w", err)
	}

	c.cfg = cfg
	c.userID = userID
	c.challengeID = challengeID
	c.levelID = levelID
	c.challengeName = challengeName
	c.progress = Progress{CurrentRound: 1, TotalRounds: cfg.NumRounds}
	c.state = InProgress

	if err := c.startRound(); err != nil {
		// Roll back so a failed spawn does not wedge the controller.
		c.state = NotStarted
		return err
	}
	return nil
}

// Resume restores an interrupted match from the recovery store and continues
// at the stored round without replaying completed rounds. When no usable
// snapshot exists for this challenge/level the controller falls back to the
// normal start flow.
func (c *Controller) Resume(userID, challengeID, levelID int64, challengeName string) error {
	if c.state != NotStarted {
		return ErrAlreadyStarted
	}

	snap := c.store.Load()
	if snap == nil || snap.ChallengeID != challengeID || snap.LevelID != levelID {
		return c.Start(userID, challengeID, levelID, challengeName)
	}

	cfg, err := c.levels.DifficultyConfig(levelID)
	if err != nil {
		return c.Start(userID, challengeID, levelID, challengeName)
	}

	c.cfg = cfg
	c.userID = userID
	c.challengeID = challengeID
	c.levelID = levelID
	c.challengeName = challengeName
	c.progress = Progress{
		CurrentRound:   snap.CurrentRound,
		TotalRounds:    snap.TotalRounds,
		TotalCorrect:   snap.TotalCorrect,
		TotalIncorrect: snap.TotalIncorrect,
	}
	c.state = InProgress

	logger.Log.Infof("Resuming match for user %d at round %d/%d", userID, snap.CurrentRound, snap.TotalRounds)
	if err := c.startRound(); err != nil {
		c.state = NotStarted
		return err
	}
	return nil
}

// Tick advances the active round. Ticks outside an in-progress match are
// ignored.
func (c *Controller) Tick(elapsed time.Duration) {
	if c.state != InProgress || c.current == nil {
		return
	}
	c.current.Tick(elapsed)
}

// Select forwards the player's answer to the active round.
func (c *Controller) Select(index int) error {
	if c.state != InProgress || c.current == nil {
		return nil
	}
	return c.current.Select(index)
}

func (c *Controller) Pause() {
	if c.current != nil {
		c.current.Pause()
	}
}

func (c *Controller) Unpause() {
	if c.current != nil {
		c.current.Unpause()
	}
}

func (c *Controller) ReplayTarget() {
	if c.current != nil {
		c.current.ReplayTarget()
	}
}

func (c *Controller) ReplayOption(index int) error {
	if c.current == nil {
		return nil
	}
	return c.current.ReplayOption(index)
}

// Abandon closes the match before completion. Nothing is persisted and the
// recovery snapshot is left intact so a later resume stays possible.
func (c *Controller) Abandon() {
	if c.state != InProgress {
		return
	}
	c.current = nil
	c.state = NotStarted
}

// DiscardSnapshot deletes the recovery snapshot without writing any match
// record, ending the possibility of resuming.
func (c *Controller) DiscardSnapshot() {
	c.store.Clear()
}

func (c *Controller) State() State         { return c.state }
func (c *Controller) Progress() Progress   { return c.progress }
func (c *Controller) Config() level.Config { return c.cfg }

func (c *Controller) startRound() error {
	spec, err := c.gen.Generate(c.cfg)
	if err != nil {
		return fmt.Errorf("match: generate round: %w", err)
	}

	c.current = round.NewMachine(spec, c.cfg, c.player, round.Callbacks{
		Step:     c.cb.SequenceStep,
		Ready:    c.cb.RoundReady,
		Complete: c.roundCompleted,
	})

	if c.cb.RoundStarted != nil {
		c.cb.RoundStarted(c.progress.CurrentRound, spec)
	}
	c.current.Start()
	return nil
}

// roundCompleted is the per-round outcome hook: exactly one counter moves,
// then either the round number advances with a snapshot write or the match
// finalizes.
func (c *Controller) roundCompleted(out round.Outcome) {
	if c.state != InProgress {
		return
	}

	if out.Correct {
		c.progress.TotalCorrect++
	} else {
		c.progress.TotalIncorrect++
	}

	if c.cb.RoundResolved != nil {
		c.cb.RoundResolved(out, c.progress)
	}

	if c.progress.CurrentRound < c.progress.TotalRounds {
		c.progress.CurrentRound++
		c.saveSnapshot()
		if err := c.startRound(); err != nil {
			logger.Log.Errorf("Failed to start round %d: %v", c.progress.CurrentRound, err)
		}
		return
	}

	c.finish()
}

// finish persists the completed match in two steps (create, then finalize
// with the totals), clears the snapshot, and transitions to Finished. A
// persistence failure is reported through the Finished callback; the
// snapshot is deliberately not restored.
func (c *Controller) finish() {
	c.current = nil
	c.state = Finished

	matchID, err := c.sink.CreateMatchRecord(c.userID, c.levelID)
	if err == nil {
		err = c.sink.FinalizeMatch(matchID, c.progress.TotalCorrect, c.progress.TotalIncorrect, c.progress.TotalRounds)
	}
	if err != nil {
		logger.Log.Errorf("Failed to persist match for user %d: %v", c.userID, err)
	}

	c.store.Clear()

	if c.cb.Finished != nil {
		c.cb.Finished(c.progress, matchID, err)
	}
}

func (c *Controller) saveSnapshot() {
	snap := recovery.Snapshot{
		UserID:         c.userID,
		ChallengeID:    c.challengeID,
		LevelID:        c.levelID,
		ChallengeName:  c.challengeName,
		CurrentRound:   c.progress.CurrentRound,
		TotalRounds:    c.progress.TotalRounds,
		TotalCorrect:   c.progress.TotalCorrect,
		TotalIncorrect: c.progress.TotalIncorrect,
	}
	if err := c.store.Save(snap); err != nil {
		logger.Log.Warnf("Failed to save match snapshot: %v", err)
		return
	}
	if c.cb.SnapshotSaved != nil {
		c.cb.SnapshotSaved(snap)
	}
}
