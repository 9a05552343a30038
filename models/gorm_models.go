// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormChallenge 挑战模型 — a playable challenge (e.g. note differentiation).
type GormChallenge struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Identifier   string `gorm:"uniqueIndex"`
	Description  string
	Requirements string
	IsStatic     bool `gorm:"default:true"`
	Levels       []GormLevel
	Parameters   []GormParameter
}

// GormParameter is a tunable parameter definition attached to a challenge.
type GormParameter struct {
	gorm.Model
	ChallengeID uint   `gorm:"index;not null"`
	Identifier  string `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
}

// GormLevel is a difficulty level of a challenge; its parameter values
// override the challenge parameters per level.
type GormLevel struct {
	gorm.Model
	ChallengeID   uint   `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	NumRounds     int    `gorm:"not null;default:10"`
	TimePerRound  int    `gorm:"not null;default:30"` // seconds
	ParameterVals []GormLevelParameterValue
}

// GormLevelParameterValue is one identifier->string value binding for a level.
type GormLevelParameterValue struct {
	gorm.Model
	LevelID     uint   `gorm:"index;not null"`
	ParameterID uint   `gorm:"index;not null"`
	Value       string `gorm:"not null"`
	Parameter   GormParameter
}

// GormMatch is a completed match. Rows are created only at match completion;
// in-progress matches live in the client-held recovery slot instead.
type GormMatch struct {
	gorm.Model
	UserID         int64 `gorm:"index;not null"`
	LevelID        int64 `gorm:"index;not null"`
	TotalRounds    int   `gorm:"default:0"`
	TotalCorrect   int   `gorm:"default:0"`
	TotalIncorrect int   `gorm:"default:0"`
	Score          int   `gorm:"default:0"`
	IsComplete     bool  `gorm:"default:false"`
	FinishedAt     *time.Time
}
