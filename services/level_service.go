// services/level_service.go
package services

import (
	"errors"

	"github.com/pitchlab/eartrainer/level"
	"github.com/pitchlab/eartrainer/models"
	"github.com/pitchlab/eartrainer/persistence"
)

// LevelService resolves levels to parsed difficulty configurations. It
// implements level.Source over the database, translating the stored
// identifier->string parameter map into a typed config exactly once per
// match start.
type LevelService struct {
	db persistence.Database
}

func NewLevelService(db persistence.Database) *LevelService {
	return &LevelService{db: db}
}

func (s *LevelService) DifficultyConfig(levelID int64) (level.Config, error) {
	details, err := s.db.GetLevelDetails(levelID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return level.Config{}, level.ErrNotFound
		}
		return level.Config{}, err
	}
	return level.Parse(details.NumRounds, details.TimePerRound, details.ChallengeIdentifier, details.Params), nil
}

// LevelDetails exposes the raw level row for callers that need the challenge
// name alongside the config (the serving layer's snapshot labels).
func (s *LevelService) LevelDetails(levelID int64) (*models.LevelDetails, error) {
	return s.db.GetLevelDetails(levelID)
}
