package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamCaptainInvalid = errors.New("team captain conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	// MemberIDs is left empty.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error)
	ListStandings(ctx context.Context, exec SQLExecutor) ([]*models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateAggregates(ctx context.Context, exec SQLExecutor, id, points, matchesPlayed int) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const (
	teamColumns = `t.id, t.name, t.logo_key, t.captain_id, t.points, t.matches_played, t.created_at,
	COALESCE(ARRAY(SELECT u.id FROM users u WHERE u.team_id = t.id ORDER BY u.id), '{}')`

	// Без подзапроса по составу: строка блокируется, состав не нужен.
	teamLockColumns = `t.id, t.name, t.logo_key, t.captain_id, t.points, t.matches_played, t.created_at, '{}'::int[]`
)

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, logo_key, captain_id, points, matches_played)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		team.Name,
		team.LogoKey,
		team.CaptainID,
		team.Points,
		team.MatchesPlayed,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		return r.handleTeamError(err)
	}
	team.MemberIDs = []int{}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`
	return r.scanTeam(getExecutor(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamLockColumns + ` FROM teams t WHERE t.id = $1 FOR UPDATE`
	return r.scanTeam(getExecutor(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t ORDER BY t.name ASC`
	return r.queryTeams(ctx, exec, query)
}

func (r *postgresTeamRepository) ListStandings(ctx context.Context, exec SQLExecutor) ([]*models.Team, error) {
	// id последним, чтобы порядок был стабильным
	query := `SELECT ` + teamColumns + ` FROM teams t
		ORDER BY t.points DESC, t.matches_played ASC, t.name ASC, t.id ASC`
	return r.queryTeams(ctx, exec, query)
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			captain_id = $2,
			points = $3,
			matches_played = $4
		WHERE id = $5`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		team.Name,
		team.CaptainID,
		team.Points,
		team.MatchesPlayed,
		team.ID,
	)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateAggregates(ctx context.Context, exec SQLExecutor, id, points, matchesPlayed int) error {
	query := `UPDATE teams SET points = $1, matches_played = $2 WHERE id = $3`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, points, matchesPlayed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	// users.team_id обнуляется через ON DELETE SET NULL; матчи остаются
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := getExecutor(exec, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := r.scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) scanTeam(row rowScanner) (*models.Team, error) {
	var team models.Team
	var captainID sql.NullInt64
	var memberIDs []int64

	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.LogoKey,
		&captainID,
		&team.Points,
		&team.MatchesPlayed,
		&team.CreatedAt,
		pq.Array(&memberIDs),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if captainID.Valid {
		id := int(captainID.Int64)
		team.CaptainID = &id
	}
	team.MemberIDs = make([]int, 0, len(memberIDs))
	for _, id := range memberIDs {
		team.MemberIDs = append(team.MemberIDs, int(id))
	}
	return &team, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "teams_name_key" {
		return ErrTeamNameConflict
	}
	if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok && constraint == "teams_captain_id_fkey" {
		return ErrTeamCaptainInvalid
	}
	return err
}
