// services/match_service.go
package services

import (
	"github.com/pitchlab/eartrainer/models"
	"github.com/pitchlab/eartrainer/persistence"
)

// MatchService is the persistence sink for completed matches plus the read
// side used by the profile/stats surfaces. It implements match.Sink.
type MatchService struct {
	db persistence.Database
}

func NewMatchService(db persistence.Database) *MatchService {
	return &MatchService{db: db}
}

func (s *MatchService) CreateMatchRecord(userID, levelID int64) (int64, error) {
	return s.db.CreateMatch(userID, levelID)
}

func (s *MatchService) FinalizeMatch(matchID int64, totalCorrect, totalIncorrect, totalRounds int) error {
	return s.db.FinalizeMatch(matchID, totalCorrect, totalIncorrect, totalRounds)
}

// MatchHistory returns the user's most recent completed matches.
func (s *MatchService) MatchHistory(userID int64, limit int) ([]models.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.db.GetMatchHistory(userID, limit)
}

// PlayerStats aggregates the user's completed matches.
func (s *MatchService) PlayerStats(userID int64) (*models.PlayerStats, error) {
	return s.db.GetPlayerStats(userID)
}
