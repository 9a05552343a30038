// recovery/snapshot.go
package recovery

import (
	"encoding/json"
	"errors"
	"time"
)

// SnapshotVersion tags the serialized payload so the format can evolve
// without silently misreading old slots.
const SnapshotVersion = 1

// MaxAge is the snapshot validity window, measured from capture time.
const MaxAge = 24 * time.Hour

var ErrMalformed = errors.New("recovery: malformed snapshot")

// Snapshot is the serialized in-progress match state written after every
// completed round. Field names follow the client slot's wire format.
type Snapshot struct {
	Version        int    `json:"version"`
	UserID         int64  `json:"userId"`
	ChallengeID    int64  `json:"challengeId"`
	LevelID        int64  `json:"levelId"`
	ChallengeName  string `json:"challengeName"`
	CurrentRound   int    `json:"currentRound"`
	TotalRounds    int    `json:"totalRounds"`
	TotalCorrect   int    `json:"totalCorrect"`
	TotalIncorrect int    `json:"totalIncorrect"`
	CapturedAt     int64  `json:"timestamp"` // epoch milliseconds
}

// Age returns how long ago the snapshot was captured.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.CapturedAt))
}

// Encode serializes the snapshot for the client-held slot.
func Encode(s *Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a slot payload. Payloads that fail to parse or carry an
// unknown version are malformed.
func Decode(payload string) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, ErrMalformed
	}
	if s.Version != SnapshotVersion {
		return nil, ErrMalformed
	}
	return &s, nil
}
