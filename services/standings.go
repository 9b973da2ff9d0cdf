package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
)

// Очки за исход матча.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// PointsFor returns the league points one side earns given both final scores.
func PointsFor(ownScore, opponentScore int) int {
	switch {
	case ownScore > opponentScore:
		return PointsWin
	case ownScore == opponentScore:
		return PointsDraw
	default:
		return PointsLoss
	}
}

type MatchSide string

const (
	SideTeam1 MatchSide = "team1"
	SideTeam2 MatchSide = "team2"
)

// SideResult is the outcome of updating one team's aggregates.
type SideResult struct {
	Side          MatchSide    `json:"side"`
	TeamID        int          `json:"team_id"`
	Applied       bool         `json:"applied"`
	PointsAwarded int          `json:"points_awarded"`
	Team          *models.Team `json:"team,omitempty"`
}

// StandingsResult reports both sides of one completed match.
type StandingsResult struct {
	MatchID int        `json:"match_id"`
	Team1   SideResult `json:"team1"`
	Team2   SideResult `json:"team2"`
}

// Skipped lists the sides whose team could not be found.
func (r *StandingsResult) Skipped() []SideResult {
	skipped := make([]SideResult, 0, 2)
	for _, side := range []SideResult{r.Team1, r.Team2} {
		if !side.Applied {
			skipped = append(skipped, side)
		}
	}
	return skipped
}

// Warning returns a *PartialApplicationWarning when a side was skipped.
func (r *StandingsResult) Warning() error {
	skipped := r.Skipped()
	if len(skipped) == 0 {
		return nil
	}
	return &PartialApplicationWarning{MatchID: r.MatchID, Skipped: skipped}
}

// PartialApplicationWarning is a soft failure: points were applied to the
// teams that exist and skipped for the rest.
type PartialApplicationWarning struct {
	MatchID int
	Skipped []SideResult
}

func (w *PartialApplicationWarning) Error() string {
	parts := make([]string, 0, len(w.Skipped))
	for _, s := range w.Skipped {
		parts = append(parts, fmt.Sprintf("%s (team %d) not found", s.Side, s.TeamID))
	}
	return fmt.Sprintf("standings for match %d partially applied: %s", w.MatchID, strings.Join(parts, ", "))
}

// StandingsRecorder is notified once per applied completion.
type StandingsRecorder interface {
	StandingsApplied(partial bool)
}

// StandingsEngine owns every write to Team.Points and Team.MatchesPlayed
// that follows from a match result.
type StandingsEngine struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	recorder StandingsRecorder
	logger   *slog.Logger
}

func NewStandingsEngine(teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) *StandingsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingsEngine{
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

// SetRecorder attaches r; nil detaches.
func (e *StandingsEngine) SetRecorder(r StandingsRecorder) {
	e.recorder = r
}

// ApplyCompletedMatch adds the match outcome to both teams' aggregates using
// exec, normally the caller's transaction. It is not idempotent: the caller
// must invoke it once per completion transition. Later score corrections are
// not compensated.
func (e *StandingsEngine) ApplyCompletedMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) (*StandingsResult, error) {
	if match == nil {
		return nil, fmt.Errorf("%w: match is required", ErrInvalidInput)
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, fmt.Errorf("%w: match %d is %q, not completed", ErrInvalidInput, match.ID, match.Status)
	}
	if match.Team1ID == match.Team2ID {
		return nil, ErrSelfMatch
	}
	if match.ScoreTeam1 < 0 || match.ScoreTeam2 < 0 {
		return nil, ErrNegativeScore
	}

	result := &StandingsResult{
		MatchID: match.ID,
		Team1: SideResult{
			Side:          SideTeam1,
			TeamID:        match.Team1ID,
			PointsAwarded: PointsFor(match.ScoreTeam1, match.ScoreTeam2),
		},
		Team2: SideResult{
			Side:          SideTeam2,
			TeamID:        match.Team2ID,
			PointsAwarded: PointsFor(match.ScoreTeam2, match.ScoreTeam1),
		},
	}

	// Блокируем строки команд по возрастанию id, чтобы параллельные
	// завершения матчей не взаимоблокировались.
	order := []*SideResult{&result.Team1, &result.Team2}
	if match.Team2ID < match.Team1ID {
		order[0], order[1] = order[1], order[0]
	}

	for _, side := range order {
		if err := e.applySide(ctx, exec, side); err != nil {
			return nil, fmt.Errorf("failed to apply standings for match %d %s: %w", match.ID, side.Side, err)
		}
	}

	warn := result.Warning()
	if warn != nil {
		e.logger.WarnContext(ctx, "standings partially applied", slog.Int("match_id", match.ID), slog.Any("warning", warn))
	}
	if e.recorder != nil {
		e.recorder.StandingsApplied(warn != nil)
	}
	return result, nil
}

func (e *StandingsEngine) applySide(ctx context.Context, exec repositories.SQLExecutor, side *SideResult) error {
	team, err := e.teamRepo.GetByIDForUpdate(ctx, exec, side.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil
		}
		return err
	}

	points := team.Points + side.PointsAwarded
	played := team.MatchesPlayed + 1
	if err := e.teamRepo.UpdateAggregates(ctx, exec, team.ID, points, played); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil
		}
		return err
	}

	team.Points = points
	team.MatchesPlayed = played
	side.Team = team
	side.Applied = true
	return nil
}

// Leaderboard returns every team ranked by points.
func (e *StandingsEngine) Leaderboard(ctx context.Context) ([]models.Standing, error) {
	teams, err := e.teamRepo.ListStandings(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}

	standings := make([]models.Standing, 0, len(teams))
	for i, team := range teams {
		populateTeamLogoURL(team, e.uploader)
		standings = append(standings, models.Standing{
			Rank:          i + 1,
			TeamID:        team.ID,
			TeamName:      team.Name,
			LogoURL:       team.LogoURL,
			Points:        team.Points,
			MatchesPlayed: team.MatchesPlayed,
		})
	}
	return standings, nil
}
