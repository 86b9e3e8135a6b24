package pet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
)

type Service struct {
	repo repository.PetRepository
}

func NewService(repo repository.PetRepository) *Service {
	return &Service{repo: repo}
}

func apply(pet *model.Pet, req *model.PetRequest) error {
	var problems []string
	name := strings.TrimSpace(req.Name)
	if name == "" {
		problems = append(problems, "name is required")
	}
	if req.PetTypeID == uuid.Nil {
		problems = append(problems, "pet_type_id is required")
	}

	var birth *model.Date
	if req.BirthDate != "" {
		d, err := model.ParseDate(req.BirthDate)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			birth = &d
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidation("invalid pet", problems...)
	}

	gender := req.Gender
	if gender == "" {
		gender = "unknown"
	}
	pet.Name = name
	pet.PetTypeID = req.PetTypeID
	pet.Gender = gender
	pet.BirthDate = birth
	return nil
}

func (s *Service) Create(ctx context.Context, customerID uuid.UUID, req *model.PetRequest) (*model.Pet, error) {
	pet := &model.Pet{ID: uuid.New(), CustomerID: customerID}
	if err := apply(pet, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, apperrors.NewNotFound("pet type", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create pet: %w", err))
	}
	return pet, nil
}

// Get returns the pet when owner may see it. Staff pass an Identity with a
// staff role and see every pet.
func (s *Service) Get(ctx context.Context, owner model.Identity, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("pet", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get pet: %w", err))
	}
	if !owner.IsStaff() && pet.CustomerID != owner.UserID {
		return nil, apperrors.NewNotFound("pet", nil)
	}
	return pet, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Pet, error) {
	pets, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list pets: %w", err))
	}
	if pets == nil {
		pets = []*model.Pet{}
	}
	return pets, nil
}

func (s *Service) Update(ctx context.Context, owner model.Identity, id uuid.UUID, req *model.PetRequest) (*model.Pet, error) {
	pet, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := apply(pet, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, pet); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("pet", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to update pet: %w", err))
	}
	return pet, nil
}
