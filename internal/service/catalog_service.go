package service

import (
	"context"

	"parkslot/internal/entities"
	"parkslot/internal/repository"
)

// CatalogService exposes the parking location contract the wizard consumes.
type CatalogService interface {
	Location(ctx context.Context) (*entities.ParkingLocation, error)
}

type catalogService struct {
	repo *repository.CatalogRepository
}

func NewCatalogService(repo *repository.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) Location(ctx context.Context) (*entities.ParkingLocation, error) {
	return s.repo.GetLocation()
}
