// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/pitchlab/eartrainer/models"
)

// Database 数据库接口 — storage operations the match engine and services need.
type Database interface {
	// GetLevelDetails returns a level's columns and parameter values keyed by
	// parameter identifier. ErrRecordNotFound when the level does not exist.
	GetLevelDetails(levelID int64) (*models.LevelDetails, error)
	// CreateMatch inserts a zeroed match row and returns its ID. Called only
	// when a match actually completes.
	CreateMatch(userID, levelID int64) (int64, error)
	// FinalizeMatch marks the match complete and writes the final totals.
	FinalizeMatch(matchID int64, totalCorrect, totalIncorrect, totalRounds int) error
	// GetMatchHistory returns a user's completed matches, newest first.
	GetMatchHistory(userID int64, limit int) ([]models.MatchRecord, error)
	// GetPlayerStats aggregates a user's completed matches.
	GetPlayerStats(userID int64) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
