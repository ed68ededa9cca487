package service

import (
	"context"
	"fmt"

	"parkslot/internal/entities"
	"parkslot/internal/repository"
)

// IdentityService resolves a user id to the user record plus registered
// vehicles, the identity contract the wizard consumes.
type IdentityService interface {
	CurrentUser(ctx context.Context, userID string) (*entities.User, error)
}

type identityService struct {
	repo repository.UserRepository
}

func NewIdentityService(repo repository.UserRepository) IdentityService {
	return &identityService{repo: repo}
}

func (s *identityService) CurrentUser(ctx context.Context, userID string) (*entities.User, error) {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	vehicles, err := s.repo.VehiclesForUser(userID)
	if err != nil {
		return nil, err
	}
	return &entities.User{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Vehicles: vehicles,
	}, nil
}
