// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pitchlab/eartrainer/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormChallenge{},
		&models.GormParameter{},
		&models.GormLevel{},
		&models.GormLevelParameterValue{},
		&models.GormMatch{},
	)
}

// GetLevelDetails loads a level with its challenge and parameter values and
// flattens the values into an identifier->string map.
func (p *GormPostgreSQL) GetLevelDetails(levelID int64) (*models.LevelDetails, error) {
	var lvl models.GormLevel
	err := p.db.Preload("ParameterVals.Parameter").First(&lvl, levelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var challenge models.GormChallenge
	if err := p.db.First(&challenge, lvl.ChallengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	params := make(map[string]string, len(lvl.ParameterVals))
	for _, pv := range lvl.ParameterVals {
		params[pv.Parameter.Identifier] = pv.Value
	}

	return &models.LevelDetails{
		LevelID:             int64(lvl.ID),
		Name:                lvl.Name,
		NumRounds:           lvl.NumRounds,
		TimePerRound:        lvl.TimePerRound,
		ChallengeID:         int64(challenge.ID),
		ChallengeName:       challenge.Name,
		ChallengeIdentifier: challenge.Identifier,
		Params:              params,
	}, nil
}

// CreateMatch inserts the match row with zeroed totals; the totals land in
// the finalize step.
func (p *GormPostgreSQL) CreateMatch(userID, levelID int64) (int64, error) {
	m := models.GormMatch{
		UserID:  userID,
		LevelID: levelID,
	}
	if err := p.db.Create(&m).Error; err != nil {
		return 0, err
	}
	return int64(m.ID), nil
}

// FinalizeMatch writes the final totals in one transaction. Score equals the
// number of correct answers.
func (p *GormPostgreSQL) FinalizeMatch(matchID int64, totalCorrect, totalIncorrect, totalRounds int) error {
	now := time.Now()
	return p.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GormMatch{}).Where("id = ?", matchID).Updates(map[string]interface{}{
			"is_complete":     true,
			"finished_at":     now,
			"total_correct":   totalCorrect,
			"total_incorrect": totalIncorrect,
			"total_rounds":    totalRounds,
			"score":           totalCorrect,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

func (p *GormPostgreSQL) GetMatchHistory(userID int64, limit int) ([]models.MatchRecord, error) {
	var rows []models.GormMatch
	err := p.db.Where("user_id = ? AND is_complete = ?", userID, true).
		Order("finished_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]models.MatchRecord, 0, len(rows))
	for _, m := range rows {
		records = append(records, models.MatchRecord{
			ID:             int64(m.ID),
			UserID:         m.UserID,
			LevelID:        m.LevelID,
			TotalRounds:    m.TotalRounds,
			TotalCorrect:   m.TotalCorrect,
			TotalIncorrect: m.TotalIncorrect,
			Score:          m.Score,
			IsComplete:     m.IsComplete,
			FinishedAt:     m.FinishedAt,
			CreatedAt:      m.CreatedAt,
		})
	}
	return records, nil
}

// GetPlayerStats 使用原生SQL聚合玩家战绩
func (p *GormPostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := p.db.Raw(`
        SELECT
            COUNT(*) as total_matches,
            COALESCE(SUM(total_correct), 0) as total_correct,
            COALESCE(SUM(total_incorrect), 0) as total_incorrect,
            COALESCE(MAX(score), 0) as best_score
        FROM gorm_matches
        WHERE user_id = ? AND is_complete = true AND deleted_at IS NULL`,
		userID,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
