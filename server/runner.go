// server/runner.go
package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/pitchlab/eartrainer/audio"
	"github.com/pitchlab/eartrainer/broadcast"
	"github.com/pitchlab/eartrainer/logger"
	"github.com/pitchlab/eartrainer/match"
	"github.com/pitchlab/eartrainer/monitor"
	"github.com/pitchlab/eartrainer/network"
	"github.com/pitchlab/eartrainer/persistence"
	"github.com/pitchlab/eartrainer/recovery"
	"github.com/pitchlab/eartrainer/round"
	"github.com/pitchlab/eartrainer/services"
	"github.com/pitchlab/eartrainer/session"
	"github.com/pitchlab/eartrainer/timer"
)

// Wire payloads for the 3xx pushes.
type roundStartPayload struct {
	Round            int      `json:"round"`
	TotalRounds      int      `json:"totalRounds"`
	Options          []string `json:"options"`
	TimeLimitMs      int64    `json:"timeLimitMs"`
	CanPause         bool     `json:"canPause"`
	CanReplayTarget  bool     `json:"canReplayTarget"`
	CanReplayOptions bool     `json:"canReplayOptions"`
}

type sequenceStepPayload struct {
	Step   int  `json:"step"`
	Target bool `json:"target"`
}

type roundResultPayload struct {
	SelectedIndex  int  `json:"selectedIndex"`
	Correct        bool `json:"correct"`
	CurrentRound   int  `json:"currentRound"`
	TotalCorrect   int  `json:"totalCorrect"`
	TotalIncorrect int  `json:"totalIncorrect"`
}

type matchProgressPayload struct {
	CurrentRound   int `json:"currentRound"`
	TotalRounds    int `json:"totalRounds"`
	TotalCorrect   int `json:"totalCorrect"`
	TotalIncorrect int `json:"totalIncorrect"`
}

type matchEndPayload struct {
	MatchID        int64 `json:"matchId"`
	TotalRounds    int   `json:"totalRounds"`
	TotalCorrect   int   `json:"totalCorrect"`
	TotalIncorrect int   `json:"totalIncorrect"`
	Score          int   `json:"score"`
	Persisted      bool  `json:"persisted"`
}

// Runner hosts one session's match: it owns the controller, drives it from
// the shared timer at the countdown resolution, and translates controller
// callbacks into server pushes. The controller is single-actor, so every
// entry point (timer tick and packet handlers alike) goes through the mutex.
type Runner struct {
	sess     *session.Session
	notifier broadcast.Notifier
	metrics  *monitor.Monitor
	timers   *timer.Manager
	levels   *services.LevelService

	mutex      sync.Mutex
	controller *match.Controller
	userID     int64
	timerID    int64
	running    bool
	closed     bool
	lastTick   time.Time
	roundStart time.Time
}

func NewRunner(sess *session.Session, notifier broadcast.Notifier, metrics *monitor.Monitor, timers *timer.Manager, levels *services.LevelService, sink match.Sink, player audio.Player) *Runner {
	r := &Runner{
		sess:     sess,
		notifier: notifier,
		metrics:  metrics,
		timers:   timers,
		levels:   levels,
	}

	store := recovery.NewStore(&sessionMedium{runner: r})
	gen := round.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))

	r.controller = match.NewController(levels, store, sink, player, gen, match.Callbacks{
		RoundStarted:  r.onRoundStarted,
		SequenceStep:  r.onSequenceStep,
		RoundReady:    r.onRoundReady,
		RoundResolved: r.onRoundResolved,
		Finished:      r.onFinished,
	})
	return r
}

// Start begins a fresh match for the session's user.
func (r *Runner) Start(userID, levelID int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	details, err := r.challengeDetails(levelID)
	if err != nil {
		return err
	}

	r.userID = userID
	r.sess.UserID = userID

	if err := r.controller.Start(userID, details.challengeID, levelID, details.challengeName); err != nil {
		return err
	}

	r.startTicking()
	return nil
}

// Resume seeds the session's recovery slot with the client-supplied payload
// and continues the match from it. An unusable payload falls back to a fresh
// start inside the controller.
func (r *Runner) Resume(userID, levelID int64, snapshot string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	details, err := r.challengeDetails(levelID)
	if err != nil {
		return err
	}

	r.userID = userID
	r.sess.UserID = userID
	if snapshot != "" {
		r.sess.Set(recovery.SlotName, snapshot)
	}

	if err := r.controller.Resume(userID, details.challengeID, levelID, details.challengeName); err != nil {
		return err
	}

	r.startTicking()
	r.pushJSON(network.MsgTypeMatchProgress, matchProgressPayload{
		CurrentRound:   r.controller.Progress().CurrentRound,
		TotalRounds:    r.controller.Progress().TotalRounds,
		TotalCorrect:   r.controller.Progress().TotalCorrect,
		TotalIncorrect: r.controller.Progress().TotalIncorrect,
	})
	return nil
}

func (r *Runner) Select(index int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.controller.Select(index)
}

func (r *Runner) Pause() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.controller.Pause()
}

func (r *Runner) Unpause() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.controller.Unpause()
}

func (r *Runner) ReplayTarget() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.controller.ReplayTarget()
}

func (r *Runner) ReplayOption(index int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.controller.ReplayOption(index)
}

// Abandon stops the match without persisting anything. The recovery slot is
// left alone so the client can resume later.
func (r *Runner) Abandon() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.controller.Abandon()
	r.stopTicking()
}

func (r *Runner) DiscardSnapshot() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.controller.DiscardSnapshot()
}

// Done reports whether the runner's match has finished. A finished
// controller cannot be restarted, so the server swaps in a fresh runner for
// the next match.
func (r *Runner) Done() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.controller.State() == match.Finished
}

// Close releases the runner when its session disconnects.
func (r *Runner) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stopTicking()
	r.closed = true
}

type challengeInfo struct {
	challengeID   int64
	challengeName string
}

func (r *Runner) challengeDetails(levelID int64) (challengeInfo, error) {
	details, err := r.levels.LevelDetails(levelID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return challengeInfo{}, match.ErrConfigMissing
		}
		return challengeInfo{}, err
	}
	return challengeInfo{challengeID: details.ChallengeID, challengeName: details.ChallengeName}, nil
}

func (r *Runner) startTicking() {
	if r.running {
		return
	}
	r.running = true
	r.lastTick = time.Now()
	r.timerID = r.timers.AddTimer(timer.Resolution, timer.Resolution, r.tick)
	r.metrics.IncActiveMatches()
}

func (r *Runner) stopTicking() {
	if !r.running {
		return
	}
	r.running = false
	r.timers.RemoveTimer(r.timerID)
	r.metrics.DecActiveMatches()
}

// tick runs on the shared timer. Wall-clock elapsed time is forwarded so a
// late wake-up does not slow the countdown.
func (r *Runner) tick() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed || r.controller.State() != match.InProgress {
		return
	}

	now := time.Now()
	elapsed := now.Sub(r.lastTick)
	r.lastTick = now
	r.controller.Tick(elapsed)
}

func (r *Runner) onRoundStarted(roundNumber int, spec round.Spec) {
	r.roundStart = time.Now()
	cfg := r.controller.Config()
	r.pushJSON(network.MsgTypeRoundStart, roundStartPayload{
		Round:            roundNumber,
		TotalRounds:      cfg.NumRounds,
		Options:          spec.Options,
		TimeLimitMs:      cfg.TimePerRound.Milliseconds(),
		CanPause:         cfg.CanPause,
		CanReplayTarget:  cfg.CanReplayTarget,
		CanReplayOptions: cfg.CanReplayOptions,
	})
}

func (r *Runner) onSequenceStep(step int, target bool) {
	r.pushJSON(network.MsgTypeSequenceStep, sequenceStepPayload{Step: step, Target: target})
}

func (r *Runner) onRoundReady() {
	r.pushJSON(network.MsgTypeRoundReady, struct{}{})
}

func (r *Runner) onRoundResolved(out round.Outcome, progress match.Progress) {
	r.metrics.ObserveRound(out.Correct, time.Since(r.roundStart))
	r.pushJSON(network.MsgTypeRoundResult, roundResultPayload{
		SelectedIndex:  out.SelectedIndex,
		Correct:        out.Correct,
		CurrentRound:   progress.CurrentRound,
		TotalCorrect:   progress.TotalCorrect,
		TotalIncorrect: progress.TotalIncorrect,
	})
}

func (r *Runner) onFinished(progress match.Progress, matchID int64, persistErr error) {
	r.stopTicking()
	if persistErr == nil {
		r.metrics.IncMatchesSaved()
	}
	r.pushJSON(network.MsgTypeMatchEnd, matchEndPayload{
		MatchID:        matchID,
		TotalRounds:    progress.TotalRounds,
		TotalCorrect:   progress.TotalCorrect,
		TotalIncorrect: progress.TotalIncorrect,
		Score:          progress.TotalCorrect,
		Persisted:      persistErr == nil,
	})
}

func (r *Runner) pushJSON(msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal push %d: %v", msgID, err)
		return
	}
	if err := r.sess.Send(msgID, data); err != nil {
		logger.Log.Warnf("Failed to push %d to session %s: %v", msgID, r.sess.GetID(), err)
	}
}

// sessionMedium binds the recovery slot to the runner's session. Writes are
// mirrored to every session of the user as a snapshot-update push so the
// browser shell can keep its cookie in step.
type sessionMedium struct {
	runner *Runner
}

func (m *sessionMedium) Get() (string, bool) {
	return m.runner.sess.Get(recovery.SlotName)
}

func (m *sessionMedium) Set(payload string) {
	m.runner.sess.Set(recovery.SlotName, payload)
	m.runner.notifier.SendToUser(m.runner.userID, network.MsgTypeSnapshotUpdate, []byte(payload))
}

func (m *sessionMedium) Clear() {
	m.runner.sess.Delete(recovery.SlotName)
	m.runner.notifier.SendToUser(m.runner.userID, network.MsgTypeSnapshotUpdate, nil)
}
