package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
)

type UserService interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	sanitizeUser(user)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	if user.Role == role {
		sanitizeUser(user)
		return user, nil
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapUserRepoError(err)
	}
	sanitizeUser(user)
	return user, nil
}

// DeleteUser removes the account; statistics go with it, team membership and
// captaincy are cleared by the database.
func (s *userService) DeleteUser(ctx context.Context, id int) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return mapUserRepoError(err)
	}
	return nil
}
