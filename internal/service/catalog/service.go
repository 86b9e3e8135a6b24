package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
)

const (
	servicesKey = "services"
	petTypesKey = "pet_types"
)

// Service manages bookable services and pet types. Reads are served from a
// TTL cache that every write invalidates.
type Service struct {
	repo  repository.CatalogRepository
	cache *cache.Cache
}

func NewService(repo repository.CatalogRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

func serviceKey(id uuid.UUID) string {
	return "service:" + id.String()
}

func validateService(req *model.ServiceRequest) error {
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if req.Duration <= 0 {
		problems = append(problems, fmt.Sprintf("duration must be greater than 0 minutes, got %d", req.Duration))
	}
	if req.Duration > int(model.EndOfDay) {
		problems = append(problems, "duration cannot exceed a day")
	}
	if req.Price < 0 {
		problems = append(problems, "price cannot be negative")
	}
	if len(problems) > 0 {
		return apperrors.NewValidation("invalid service", problems...)
	}
	return nil
}

func (s *Service) CreateService(ctx context.Context, req *model.ServiceRequest) (*model.ServiceDefinition, error) {
	if err := validateService(req); err != nil {
		return nil, err
	}

	svc := &model.ServiceDefinition{
		Name:     strings.TrimSpace(req.Name),
		Duration: req.Duration,
		Price:    req.Price,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("service already exists")
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create service: %w", err))
	}
	s.cache.Delete(servicesKey)
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.ServiceDefinition, error) {
	if cached, ok := s.cache.Get(serviceKey(id)); ok {
		svc := *cached.(*model.ServiceDefinition)
		return &svc, nil
	}

	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("service", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get service: %w", err))
	}

	stored := *svc
	s.cache.SetDefault(serviceKey(id), &stored)
	return svc, nil
}

func (s *Service) ListServices(ctx context.Context) ([]*model.ServiceDefinition, error) {
	if cached, ok := s.cache.Get(servicesKey); ok {
		return cached.([]*model.ServiceDefinition), nil
	}

	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list services: %w", err))
	}
	if services == nil {
		services = []*model.ServiceDefinition{}
	}
	s.cache.SetDefault(servicesKey, services)
	return services, nil
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, req *model.ServiceRequest) (*model.ServiceDefinition, error) {
	if err := validateService(req); err != nil {
		return nil, err
	}

	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("service", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get service: %w", err))
	}

	svc.Name = strings.TrimSpace(req.Name)
	svc.Duration = req.Duration
	svc.Price = req.Price
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to update service: %w", err))
	}

	s.invalidate(id)
	return svc, nil
}

// DeleteService removes a service that no booking refers to.
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("service", err)
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewConflict("service is used by existing bookings")
		default:
			return apperrors.NewInternal(fmt.Errorf("failed to delete service: %w", err))
		}
	}
	s.invalidate(id)
	return nil
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Delete(serviceKey(id))
	s.cache.Delete(servicesKey)
}

func (s *Service) CreatePetType(ctx context.Context, req *model.PetTypeRequest) (*model.PetType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidation("invalid pet type", "name is required")
	}

	petType := &model.PetType{ID: uuid.New(), Name: name}
	if err := s.repo.CreatePetType(ctx, petType); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("pet type already exists")
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create pet type: %w", err))
	}
	s.cache.Delete(petTypesKey)
	return petType, nil
}

func (s *Service) ListPetTypes(ctx context.Context) ([]*model.PetType, error) {
	if cached, ok := s.cache.Get(petTypesKey); ok {
		return cached.([]*model.PetType), nil
	}

	types, err := s.repo.ListPetTypes(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list pet types: %w", err))
	}
	if types == nil {
		types = []*model.PetType{}
	}
	s.cache.SetDefault(petTypesKey, types)
	return types, nil
}
