// audio/midi.go
package audio

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/pitchlab/eartrainer/logger"
)

const midiVelocity = 100

// semitone offsets within an octave, sharps only (the pitch catalog never
// uses flats).
var semitones = map[string]uint8{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

// MIDIPlayer routes pitches and cues to a MIDI output port. It satisfies the
// fire-and-forget Player contract by scheduling note-offs on timers.
type MIDIPlayer struct {
	mu   sync.Mutex
	drv  *rtmididrv.Driver
	out  drivers.Out
	send func(midi.Message) error
}

// NewMIDIPlayer opens the first MIDI output whose name contains portName
// (case-insensitive), or the first available output when portName is empty.
func NewMIDIPlayer(portName string) (*MIDIPlayer, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi outputs: %w", err)
	}

	var out drivers.Out
	for _, o := range outs {
		if portName == "" || strings.Contains(strings.ToLower(o.String()), strings.ToLower(portName)) {
			out = o
			break
		}
	}
	if out == nil {
		drv.Close()
		return nil, fmt.Errorf("no midi output matching %q", portName)
	}

	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open midi output %s: %w", out.String(), err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midi send: %w", err)
	}

	logger.Log.Infof("MIDI audio on output %s", out.String())
	return &MIDIPlayer{drv: drv, out: out, send: send}, nil
}

func (p *MIDIPlayer) PlayPitch(name, duration string) {
	key, err := noteNumber(name)
	if err != nil {
		logger.Log.Warnf("midi: %v", err)
		return
	}
	p.note(key, durationOf(duration), 0)
}

// PlaySuccessCue plays an ascending C-major arpeggio ending on C6.
func (p *MIDIPlayer) PlaySuccessCue() {
	keys := []string{"C5", "E5", "G5"}
	for i, name := range keys {
		if key, err := noteNumber(name); err == nil {
			p.note(key, durationOf(Eighth), time.Duration(i)*100*time.Millisecond)
		}
	}
	if key, err := noteNumber("C6"); err == nil {
		p.note(key, durationOf(Quarter), 300*time.Millisecond)
	}
}

// PlayErrorCue plays the descending E4-E4-C4 figure.
func (p *MIDIPlayer) PlayErrorCue() {
	if key, err := noteNumber("E4"); err == nil {
		p.note(key, durationOf(Eighth), 0)
		p.note(key, durationOf(Eighth), 150*time.Millisecond)
	}
	if key, err := noteNumber("C4"); err == nil {
		p.note(key, durationOf(Quarter), 300*time.Millisecond)
	}
}

// Close releases the output port and the underlying driver.
func (p *MIDIPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drv.Close()
}

// note schedules a NoteOn after delay and the matching NoteOff after the
// note's duration has elapsed.
func (p *MIDIPlayer) note(key uint8, dur, delay time.Duration) {
	time.AfterFunc(delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if err := p.send(midi.NoteOn(0, key, midiVelocity)); err != nil {
			logger.Log.Warnf("midi: note on failed: %v", err)
			return
		}
		time.AfterFunc(dur, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if err := p.send(midi.NoteOff(0, key)); err != nil {
				logger.Log.Warnf("midi: note off failed: %v", err)
			}
		})
	})
}

// noteNumber converts a catalog pitch name like "C#4" to its MIDI key
// (C4 = 60).
func noteNumber(name string) (uint8, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("bad pitch name %q", name)
	}
	letter := name[:len(name)-1]
	octave := int(name[len(name)-1] - '0')
	semi, ok := semitones[letter]
	if !ok || octave < 0 || octave > 9 {
		return 0, fmt.Errorf("bad pitch name %q", name)
	}
	return uint8((octave+1)*12) + semi, nil
}

// durationOf maps a duration token to wall time at 120 BPM.
func durationOf(token string) time.Duration {
	switch token {
	case Whole:
		return 2 * time.Second
	case Half:
		return time.Second
	case Quarter:
		return 500 * time.Millisecond
	case Eighth:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}
