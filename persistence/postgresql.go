// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/pitchlab/eartrainer/models"
)

// PostgreSQL is the plain database/sql implementation of Database. It assumes
// the schema already exists (created by the GORM implementation's migration
// or by hand) and is kept for deployments that do not want an ORM in the
// write path. Unlike the GORM implementation it finalizes without a
// transaction wrapper, so a failed finalize after a successful create leaves
// an incomplete row behind — accepted behavior, such rows are filtered out of
// every read.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgreSQL{db: db}, nil
}

func (p *PostgreSQL) GetLevelDetails(levelID int64) (*models.LevelDetails, error) {
	details := &models.LevelDetails{Params: make(map[string]string)}

	err := p.db.QueryRow(`
        SELECT l.id, l.name, l.num_rounds, l.time_per_round,
               c.id, c.name, c.identifier
        FROM gorm_levels l
        JOIN gorm_challenges c ON c.id = l.challenge_id
        WHERE l.id = $1 AND l.deleted_at IS NULL`,
		levelID,
	).Scan(&details.LevelID, &details.Name, &details.NumRounds, &details.TimePerRound,
		&details.ChallengeID, &details.ChallengeName, &details.ChallengeIdentifier)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(`
        SELECT par.identifier, pv.value
        FROM gorm_level_parameter_values pv
        JOIN gorm_parameters par ON par.id = pv.parameter_id
        WHERE pv.level_id = $1 AND pv.deleted_at IS NULL`,
		levelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var identifier, value string
		if err := rows.Scan(&identifier, &value); err != nil {
			return nil, err
		}
		details.Params[identifier] = value
	}
	return details, rows.Err()
}

func (p *PostgreSQL) CreateMatch(userID, levelID int64) (int64, error) {
	var id int64
	err := p.db.QueryRow(`
        INSERT INTO gorm_matches (user_id, level_id, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        RETURNING id`,
		userID, levelID,
	).Scan(&id)
	return id, err
}

func (p *PostgreSQL) FinalizeMatch(matchID int64, totalCorrect, totalIncorrect, totalRounds int) error {
	res, err := p.db.Exec(`
        UPDATE gorm_matches
        SET is_complete = true, finished_at = NOW(), updated_at = NOW(),
            total_correct = $2, total_incorrect = $3, total_rounds = $4, score = $2
        WHERE id = $1`,
		matchID, totalCorrect, totalIncorrect, totalRounds,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (p *PostgreSQL) GetMatchHistory(userID int64, limit int) ([]models.MatchRecord, error) {
	rows, err := p.db.Query(`
        SELECT id, user_id, level_id, total_rounds, total_correct,
               total_incorrect, score, is_complete, finished_at, created_at
        FROM gorm_matches
        WHERE user_id = $1 AND is_complete = true AND deleted_at IS NULL
        ORDER BY finished_at DESC
        LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var m models.MatchRecord
		if err := rows.Scan(&m.ID, &m.UserID, &m.LevelID, &m.TotalRounds, &m.TotalCorrect,
			&m.TotalIncorrect, &m.Score, &m.IsComplete, &m.FinishedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := p.db.QueryRow(`
        SELECT COUNT(*),
               COALESCE(SUM(total_correct), 0),
               COALESCE(SUM(total_incorrect), 0),
               COALESCE(MAX(score), 0)
        FROM gorm_matches
        WHERE user_id = $1 AND is_complete = true AND deleted_at IS NULL`,
		userID,
	).Scan(&stats.TotalMatches, &stats.TotalCorrect, &stats.TotalIncorrect, &stats.BestScore)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
