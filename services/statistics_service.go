package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
)

// StatisticsService edits player statistics directly; nothing derives them
// from match results.
type StatisticsService interface {
	UpsertStatistics(ctx context.Context, userID int, input StatisticsInput) (*models.Statistics, error)
	GetStatistics(ctx context.Context, userID int) (*models.Statistics, error)
	ListStatistics(ctx context.Context) ([]*models.Statistics, error)
	DeleteStatistics(ctx context.Context, userID int) error
}

type StatisticsInput struct {
	Goals       int `json:"goals" validate:"gte=0"`
	Assists     int `json:"assists" validate:"gte=0"`
	YellowCards int `json:"yellow_cards" validate:"gte=0"`
	RedCards    int `json:"red_cards" validate:"gte=0"`
	GamesPlayed int `json:"games_played" validate:"gte=0"`
}

type statisticsService struct {
	statsRepo repositories.StatisticsRepository
	userRepo  repositories.UserRepository
}

func NewStatisticsService(statsRepo repositories.StatisticsRepository, userRepo repositories.UserRepository) StatisticsService {
	return &statisticsService{
		statsRepo: statsRepo,
		userRepo:  userRepo,
	}
}

func (s *statisticsService) UpsertStatistics(ctx context.Context, userID int, input StatisticsInput) (*models.Statistics, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, mapUserRepoError(err)
	}

	stats := &models.Statistics{
		UserID:      userID,
		Goals:       input.Goals,
		Assists:     input.Assists,
		YellowCards: input.YellowCards,
		RedCards:    input.RedCards,
		GamesPlayed: input.GamesPlayed,
	}
	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		if errors.Is(err, repositories.ErrStatisticsUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save statistics for user %d: %w", userID, err)
	}
	return stats, nil
}

func (s *statisticsService) GetStatistics(ctx context.Context, userID int) (*models.Statistics, error) {
	stats, err := s.statsRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrStatisticsNotFound) {
			return nil, ErrStatisticsNotFound
		}
		return nil, err
	}
	return stats, nil
}

func (s *statisticsService) ListStatistics(ctx context.Context) ([]*models.Statistics, error) {
	list, err := s.statsRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	return list, nil
}

func (s *statisticsService) DeleteStatistics(ctx context.Context, userID int) error {
	if err := s.statsRepo.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrStatisticsNotFound) {
			return ErrStatisticsNotFound
		}
		return err
	}
	return nil
}
