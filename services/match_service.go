package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
)

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter MatchListFilter) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, id int, patch UpdateMatchInput) (*UpdateMatchResult, error)
	// DeleteMatch never reverts standings already awarded for the match.
	DeleteMatch(ctx context.Context, id int) error
}

type CreateMatchInput struct {
	Team1ID   int                 `json:"team1_id" validate:"required,gt=0"`
	Team2ID   int                 `json:"team2_id" validate:"required,gt=0"`
	MatchDate time.Time           `json:"match_date"`
	Status    *models.MatchStatus `json:"status,omitempty"`
}

// UpdateMatchInput is a partial update; nil fields keep the stored value.
type UpdateMatchInput struct {
	Team1ID    *int                `json:"team1_id,omitempty" validate:"omitempty,gt=0"`
	Team2ID    *int                `json:"team2_id,omitempty" validate:"omitempty,gt=0"`
	ScoreTeam1 *int                `json:"score_team1,omitempty"`
	ScoreTeam2 *int                `json:"score_team2,omitempty"`
	MatchDate  *time.Time          `json:"match_date,omitempty"`
	Status     *models.MatchStatus `json:"status,omitempty"`
}

func (p UpdateMatchInput) isEmpty() bool {
	return p.Team1ID == nil && p.Team2ID == nil && p.ScoreTeam1 == nil &&
		p.ScoreTeam2 == nil && p.MatchDate == nil && p.Status == nil
}

type MatchListFilter struct {
	Status *models.MatchStatus
	TeamID *int
}

// UpdateMatchResult carries the stored match and, when this update completed
// the match, the standings outcome.
type UpdateMatchResult struct {
	Match     *models.Match    `json:"match"`
	Standings *StandingsResult `json:"standings,omitempty"`
}

type matchService struct {
	tx        repositories.Transactor
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	engine    *StandingsEngine
	publisher EventPublisher
	logger    *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	engine *StandingsEngine,
	publisher EventPublisher,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		tx:        tx,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Team1ID == input.Team2ID {
		return nil, ErrSelfMatch
	}
	if input.MatchDate.IsZero() {
		return nil, ErrMatchDateRequired
	}

	status := models.MatchStatusPending
	if input.Status != nil {
		status = *input.Status
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, status)
	}

	match := &models.Match{
		Team1ID:   input.Team1ID,
		Team2ID:   input.Team2ID,
		MatchDate: input.MatchDate.UTC(),
		Status:    status,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ensureTeamsExist(ctx, exec, match.Team1ID, match.Team2ID); err != nil {
			return err
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return mapMatchRepoError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventMatchCreated, match)
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter MatchListFilter) ([]*models.Match, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, *filter.Status)
	}
	matches, err := s.matchRepo.List(ctx, nil, repositories.MatchFilter{Status: filter.Status, TeamID: filter.TeamID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// UpdateMatch merges patch into the stored match. The row is locked before
// its prior status is read, so the completion check, the match write and both
// team writes commit together and points are awarded at most once.
func (s *matchService) UpdateMatch(ctx context.Context, id int, patch UpdateMatchInput) (*UpdateMatchResult, error) {
	if patch.isEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	var result *UpdateMatchResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stored, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapMatchRepoError(err)
		}
		prevStatus := stored.Status

		merged := *stored
		teamsChanged := applyMatchPatch(&merged, patch)

		if err := validateMergedMatch(prevStatus, &merged); err != nil {
			return err
		}
		if teamsChanged {
			if err := s.ensureTeamsExist(ctx, exec, merged.Team1ID, merged.Team2ID); err != nil {
				return err
			}
		}

		if err := s.matchRepo.Update(ctx, exec, &merged); err != nil {
			return mapMatchRepoError(err)
		}
		result = &UpdateMatchResult{Match: &merged}

		if models.IsCompletionTransition(prevStatus, merged.Status) {
			standings, err := s.engine.ApplyCompletedMatch(ctx, exec, &merged)
			if err != nil {
				return err
			}
			result.Standings = standings
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventMatchUpdated, result.Match)
	if result.Standings != nil {
		s.publish(ctx, EventStandingsUpdated, result.Standings)
	}
	return result, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, nil, id); err != nil {
		return mapMatchRepoError(err)
	}
	s.publish(ctx, EventMatchDeleted, map[string]int{"match_id": id})
	return nil
}

// applyMatchPatch reports whether either team id changed.
func applyMatchPatch(m *models.Match, patch UpdateMatchInput) bool {
	teamsChanged := false
	if patch.Team1ID != nil && *patch.Team1ID != m.Team1ID {
		m.Team1ID = *patch.Team1ID
		teamsChanged = true
	}
	if patch.Team2ID != nil && *patch.Team2ID != m.Team2ID {
		m.Team2ID = *patch.Team2ID
		teamsChanged = true
	}
	if patch.ScoreTeam1 != nil {
		m.ScoreTeam1 = *patch.ScoreTeam1
	}
	if patch.ScoreTeam2 != nil {
		m.ScoreTeam2 = *patch.ScoreTeam2
	}
	if patch.MatchDate != nil {
		m.MatchDate = patch.MatchDate.UTC()
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	return teamsChanged
}

func validateMergedMatch(prevStatus models.MatchStatus, m *models.Match) error {
	if m.Team1ID == m.Team2ID {
		return ErrSelfMatch
	}
	if m.ScoreTeam1 < 0 || m.ScoreTeam2 < 0 {
		return ErrNegativeScore
	}
	if !m.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMatchStatus, m.Status)
	}
	if m.MatchDate.IsZero() {
		return ErrMatchDateRequired
	}
	if !prevStatus.CanTransitionTo(m.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, prevStatus, m.Status)
	}
	return nil
}

func (s *matchService) ensureTeamsExist(ctx context.Context, exec repositories.SQLExecutor, teamIDs ...int) error {
	for _, teamID := range teamIDs {
		if _, err := s.teamRepo.GetByID(ctx, exec, teamID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return fmt.Errorf("%w: team %d", ErrMatchTeamNotFound, teamID)
			}
			return fmt.Errorf("failed to load team %d: %w", teamID, err)
		}
	}
	return nil
}

func (s *matchService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to publish live event", slog.String("event", eventType), slog.Any("error", err))
	}
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchSameTeams):
		return ErrSelfMatch
	default:
		return err
	}
}
