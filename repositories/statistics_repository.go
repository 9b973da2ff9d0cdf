package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/league-system/models"
)

var (
	ErrStatisticsNotFound    = errors.New("statistics not found")
	ErrStatisticsUserInvalid = errors.New("statistics user conflict or invalid")
)

type StatisticsRepository interface {
	// Upsert creates or replaces the row for stats.UserID.
	Upsert(ctx context.Context, stats *models.Statistics) error
	GetByUserID(ctx context.Context, userID int) (*models.Statistics, error)
	List(ctx context.Context) ([]*models.Statistics, error)
	DeleteByUserID(ctx context.Context, userID int) error
}

type postgresStatisticsRepository struct {
	db *sql.DB
}

func NewPostgresStatisticsRepository(db *sql.DB) StatisticsRepository {
	return &postgresStatisticsRepository{db: db}
}

const statisticsColumns = `id, user_id, goals, assists, yellow_cards, red_cards, games_played, updated_at`

func (r *postgresStatisticsRepository) Upsert(ctx context.Context, stats *models.Statistics) error {
	query := `
		INSERT INTO statistics (user_id, goals, assists, yellow_cards, red_cards, games_played, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			yellow_cards = EXCLUDED.yellow_cards,
			red_cards = EXCLUDED.red_cards,
			games_played = EXCLUDED.games_played,
			updated_at = NOW()
		RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		stats.UserID,
		stats.Goals,
		stats.Assists,
		stats.YellowCards,
		stats.RedCards,
		stats.GamesPlayed,
	).Scan(&stats.ID, &stats.UpdatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok && constraint == "statistics_user_id_fkey" {
			return ErrStatisticsUserInvalid
		}
		return err
	}
	return nil
}

func (r *postgresStatisticsRepository) GetByUserID(ctx context.Context, userID int) (*models.Statistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM statistics WHERE user_id = $1`
	return r.scanStatistics(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresStatisticsRepository) List(ctx context.Context) ([]*models.Statistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM statistics ORDER BY goals DESC, assists DESC, user_id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.Statistics, 0)
	for rows.Next() {
		s, scanErr := r.scanStatistics(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		list = append(list, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresStatisticsRepository) DeleteByUserID(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM statistics WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStatisticsNotFound)
}

func (r *postgresStatisticsRepository) scanStatistics(row rowScanner) (*models.Statistics, error) {
	var s models.Statistics
	err := row.Scan(
		&s.ID, &s.UserID, &s.Goals, &s.Assists,
		&s.YellowCards, &s.RedCards, &s.GamesPlayed, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatisticsNotFound
		}
		return nil, err
	}
	return &s, nil
}
