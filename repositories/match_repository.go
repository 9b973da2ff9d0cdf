package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/Dosada05/league-system/models"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchSameTeams = errors.New("match teams must differ")
)

// MatchFilter narrows List; nil fields are ignored.
type MatchFilter struct {
	Status *models.MatchStatus
	TeamID *int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, team1_id, team2_id, score_team1, score_team2, match_date, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (team1_id, team2_id, score_team1, score_team2, match_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		match.Team1ID,
		match.Team2ID,
		match.ScoreTeam1,
		match.ScoreTeam2,
		match.MatchDate,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(getExecutor(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(getExecutor(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE 1 = 1`)

	args := []interface{}{}
	placeholderIndex := 1

	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}

	if filter.TeamID != nil {
		p := "$" + strconv.Itoa(placeholderIndex)
		queryBuilder.WriteString(" AND (team1_id = " + p + " OR team2_id = " + p + ")")
		args = append(args, *filter.TeamID)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY match_date ASC, id ASC")

	rows, err := getExecutor(exec, r.db).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			team1_id = $1,
			team2_id = $2,
			score_team1 = $3,
			score_team2 = $4,
			match_date = $5,
			status = $6
		WHERE id = $7`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		match.Team1ID,
		match.Team2ID,
		match.ScoreTeam1,
		match.ScoreTeam2,
		match.MatchDate,
		match.Status,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}

	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var match models.Match
	err := row.Scan(
		&match.ID,
		&match.Team1ID,
		&match.Team2ID,
		&match.ScoreTeam1,
		&match.ScoreTeam2,
		&match.MatchDate,
		&match.Status,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := pqConstraint(err, pqCheckViolation); ok && constraint == "matches_distinct_teams" {
		return ErrMatchSameTeams
	}
	return err
}
