// audio/audio.go
package audio

// Duration tokens accepted by Player implementations, mirroring common
// notation values: whole, half, quarter and eighth notes.
const (
	Whole   = "1n"
	Half    = "2n"
	Quarter = "4n"
	Eighth  = "8n"
)

// Player is the audio capability consumed by the round engine. Calls are
// fire-and-forget; implementations must never block the caller on playback.
type Player interface {
	// PlayPitch plays a named pitch (e.g. "C#4") for the given duration token.
	PlayPitch(name, duration string)
	// PlaySuccessCue plays the correct-answer flourish.
	PlaySuccessCue()
	// PlayErrorCue plays the wrong-answer/timeout flourish.
	PlayErrorCue()
}

// NopPlayer discards all playback. Used for headless servers and tests.
type NopPlayer struct{}

func (NopPlayer) PlayPitch(name, duration string) {}
func (NopPlayer) PlaySuccessCue()                 {}
func (NopPlayer) PlayErrorCue()                   {}
