// models/models.go
package models

import (
	"time"
)

// LevelDetails is the denormalized level row handed to the difficulty
// parser: the level's own columns plus its parameter values keyed by
// parameter identifier.
type LevelDetails struct {
	LevelID             int64             `json:"level_id"`
	Name                string            `json:"name"`
	NumRounds           int               `json:"num_rounds"`
	TimePerRound        int               `json:"time_per_round"` // seconds
	ChallengeID         int64             `json:"challenge_id"`
	ChallengeName       string            `json:"challenge_name"`
	ChallengeIdentifier string            `json:"challenge_identifier"`
	Params              map[string]string `json:"params"`
}

// MatchRecord is a completed match as read back from storage.
type MatchRecord struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	LevelID        int64      `json:"level_id"`
	TotalRounds    int        `json:"total_rounds"`
	TotalCorrect   int        `json:"total_correct"`
	TotalIncorrect int        `json:"total_incorrect"`
	Score          int        `json:"score"`
	IsComplete     bool       `json:"is_complete"`
	FinishedAt     *time.Time `json:"finished_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PlayerStats aggregates a user's completed matches.
type PlayerStats struct {
	TotalMatches   int `json:"total_matches"`
	TotalCorrect   int `json:"total_correct"`
	TotalIncorrect int `json:"total_incorrect"`
	BestScore      int `json:"best_score"`
}
