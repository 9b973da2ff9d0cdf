package handlers

import (
	"context"
	"io"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/services"
)

type stubMatchService struct {
	create func(ctx context.Context, input services.CreateMatchInput) (*models.Match, error)
	update func(ctx context.Context, id int, patch services.UpdateMatchInput) (*services.UpdateMatchResult, error)
	get    func(ctx context.Context, id int) (*models.Match, error)
	list   func(ctx context.Context, filter services.MatchListFilter) ([]*models.Match, error)
	del    func(ctx context.Context, id int) error
}

func (s *stubMatchService) CreateMatch(ctx context.Context, input services.CreateMatchInput) (*models.Match, error) {
	return s.create(ctx, input)
}

func (s *stubMatchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	return s.get(ctx, id)
}

func (s *stubMatchService) ListMatches(ctx context.Context, filter services.MatchListFilter) ([]*models.Match, error) {
	return s.list(ctx, filter)
}

func (s *stubMatchService) UpdateMatch(ctx context.Context, id int, patch services.UpdateMatchInput) (*services.UpdateMatchResult, error) {
	return s.update(ctx, id, patch)
}

func (s *stubMatchService) DeleteMatch(ctx context.Context, id int) error {
	return s.del(ctx, id)
}

type stubAuthService struct {
	register func(ctx context.Context, input services.RegisterInput) (*models.User, error)
	login    func(ctx context.Context, input services.LoginInput) (*models.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	return s.register(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	return s.login(ctx, input)
}

type stubTeamService struct {
	services.TeamService
	upload func(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
	get    func(ctx context.Context, id int) (*services.TeamDetails, error)
}

func (s *stubTeamService) UploadTeamLogo(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	return s.upload(ctx, teamID, contentType, file)
}

func (s *stubTeamService) GetTeamByID(ctx context.Context, id int) (*services.TeamDetails, error) {
	return s.get(ctx, id)
}

type stubLeaderboard struct {
	standings []models.Standing
	err       error
}

func (s *stubLeaderboard) Leaderboard(ctx context.Context) ([]models.Standing, error) {
	return s.standings, s.err
}
