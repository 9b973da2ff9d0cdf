package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
	"golang.org/x/sync/errgroup"
)

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*TeamDetails, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int) error
	AddMember(ctx context.Context, teamID, userID int) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, userID int) (*models.Team, error)
	UploadTeamLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
}

type CreateTeamInput struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	CaptainID *int   `json:"captain_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateTeamInput is a partial update. CaptainID 0 clears the captain.
// Points and MatchesPlayed are an administrative override of the aggregates.
type UpdateTeamInput struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	CaptainID     *int    `json:"captain_id,omitempty" validate:"omitempty,gte=0"`
	Points        *int    `json:"points,omitempty"`
	MatchesPlayed *int    `json:"matches_played,omitempty"`
}

// TeamDetails is a team with its members resolved.
type TeamDetails struct {
	*models.Team
	Members []models.User `json:"members"`
	Captain *models.User  `json:"captain,omitempty"`
}

type teamService struct {
	tx       repositories.Transactor
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(
	tx repositories.Transactor,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &teamService{
		tx:       tx,
		teamRepo: teamRepo,
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.CaptainID != nil {
		if err := s.ensureUserExists(ctx, *input.CaptainID, ErrCaptainNotFound); err != nil {
			return nil, err
		}
	}

	team := &models.Team{
		Name:      input.Name,
		CaptainID: input.CaptainID,
	}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		return nil, mapTeamRepoError(err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// GetTeamByID loads the team and its members concurrently.
func (s *teamService) GetTeamByID(ctx context.Context, id int) (*TeamDetails, error) {
	var (
		team    *models.Team
		members []models.User
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.teamRepo.GetByID(gCtx, nil, id)
		if err != nil {
			return mapTeamRepoError(err)
		}
		team = t
		return nil
	})

	g.Go(func() error {
		users, err := s.userRepo.ListByTeamID(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list members of team %d: %w", id, err)
		}
		members = users
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateTeamLogoURL(team, s.uploader)
	details := &TeamDetails{Team: team, Members: make([]models.User, 0, len(members))}
	for i := range members {
		sanitizeUser(&members[i])
		details.Members = append(details.Members, members[i])
	}
	if team.CaptainID != nil {
		for i := range details.Members {
			if details.Members[i].ID == *team.CaptainID {
				details.Captain = &details.Members[i]
				break
			}
		}
	}
	return details, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

// UpdateTeam locks the team row so an aggregate override cannot interleave
// with a match completion writing the same row.
func (s *teamService) UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error) {
	if input.Name == nil && input.CaptainID == nil && input.Points == nil && input.MatchesPlayed == nil {
		return nil, ErrNoFieldsToUpdate
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, ErrTeamNameRequired
		}
		input.Name = &trimmed
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if (input.Points != nil && *input.Points < 0) || (input.MatchesPlayed != nil && *input.MatchesPlayed < 0) {
		return nil, ErrNegativeAggregate
	}
	if input.CaptainID != nil && *input.CaptainID > 0 {
		if err := s.ensureUserExists(ctx, *input.CaptainID, ErrCaptainNotFound); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapTeamRepoError(err)
		}

		if input.Name != nil {
			team.Name = *input.Name
		}
		if input.CaptainID != nil {
			if *input.CaptainID == 0 {
				team.CaptainID = nil
			} else {
				captainID := *input.CaptainID
				team.CaptainID = &captainID
			}
		}
		if input.Points != nil {
			team.Points = *input.Points
		}
		if input.MatchesPlayed != nil {
			team.MatchesPlayed = *input.MatchesPlayed
		}

		if err := s.teamRepo.Update(ctx, exec, team); err != nil {
			return mapTeamRepoError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Points != nil || input.MatchesPlayed != nil {
		s.logger.InfoContext(ctx, "team aggregates overridden", slog.Int("team_id", id))
	}
	return s.loadTeam(ctx, id)
}

// DeleteTeam leaves the team's matches in place.
func (s *teamService) DeleteTeam(ctx context.Context, id int) error {
	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return mapTeamRepoError(err)
	}
	if err := s.teamRepo.Delete(ctx, nil, id); err != nil {
		return mapTeamRepoError(err)
	}
	if team.LogoKey != nil && *team.LogoKey != "" {
		s.deleteLogoBestEffort(ctx, *team.LogoKey)
	}
	return nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID int) (*models.Team, error) {
	if _, err := s.teamRepo.GetByID(ctx, nil, teamID); err != nil {
		return nil, mapTeamRepoError(err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	if user.TeamID != nil {
		if *user.TeamID == teamID {
			return s.loadTeam(ctx, teamID)
		}
		return nil, ErrUserAlreadyInTeam
	}

	if err := s.userRepo.SetTeam(ctx, userID, &teamID); err != nil {
		if errors.Is(err, repositories.ErrUserTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, mapUserRepoError(err)
	}
	return s.loadTeam(ctx, teamID)
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	if user.TeamID == nil || *user.TeamID != teamID {
		return nil, ErrUserNotInTeam
	}
	if team.CaptainID != nil && *team.CaptainID == userID {
		return nil, ErrCannotRemoveCaptain
	}

	if err := s.userRepo.SetTeam(ctx, userID, nil); err != nil {
		return nil, mapUserRepoError(err)
	}
	return s.loadTeam(ctx, teamID)
}

func (s *teamService) UploadTeamLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	oldKey := team.LogoKey

	key := fmt.Sprintf("teams/%d/logo_%d%s", teamID, time.Now().UnixNano(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, nil, teamID, &key); err != nil {
		// Новый файл больше никому не нужен
		s.deleteLogoBestEffort(ctx, key)
		return nil, mapTeamRepoError(err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != key {
		s.deleteLogoBestEffort(ctx, *oldKey)
	}
	return s.loadTeam(ctx, teamID)
}

func (s *teamService) loadTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) ensureUserExists(ctx context.Context, userID int, notFound error) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return notFound
		}
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return nil
}

func (s *teamService) deleteLogoBestEffort(ctx context.Context, key string) {
	if s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete team logo", slog.String("key", key), slog.Any("error", err))
	}
}

func mapTeamRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamCaptainInvalid):
		return ErrCaptainNotFound
	default:
		return err
	}
}

func mapUserRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrUserNicknameConflict):
		return ErrUserNicknameConflict
	case errors.Is(err, repositories.ErrUserTeamInvalid):
		return ErrTeamNotFound
	default:
		return err
	}
}
