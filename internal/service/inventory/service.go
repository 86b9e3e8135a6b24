package inventory

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

// Service manages the medication catalogue. Stock only moves through the
// dispensing ledger or an explicit edit here.
type Service struct {
	repo repository.MedicationRepository
}

func NewService(repo repository.MedicationRepository) *Service {
	return &Service{repo: repo}
}

func validate(req *model.MedicationRequest) error {
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if req.StockQuantity < 0 {
		problems = append(problems, "stock_quantity cannot be negative")
	}
	if req.UnitPrice < 0 {
		problems = append(problems, "unit_price cannot be negative")
	}
	if len(problems) > 0 {
		return apperrors.NewValidation("invalid medication", problems...)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req *model.MedicationRequest) (*model.Medication, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	med := &model.Medication{
		Name:          strings.TrimSpace(req.Name),
		StockQuantity: req.StockQuantity,
		UnitPrice:     req.UnitPrice,
		PackageSize:   req.PackageSize,
	}
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create medication: %w", err))
	}
	return med, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	med, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get medication")
	}
	return med, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Medication, error) {
	meds, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list medications: %w", err))
	}
	return meds, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.MedicationRequest) (*model.Medication, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	med, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get medication")
	}
	med.Name = strings.TrimSpace(req.Name)
	med.StockQuantity = req.StockQuantity
	med.UnitPrice = req.UnitPrice
	med.PackageSize = req.PackageSize

	if err := s.repo.Update(ctx, med); err != nil {
		return nil, notFoundOr(err, "failed to update medication")
	}
	return med, nil
}

// Delete removes a medication that was never dispensed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("medication has dispensing history and cannot be deleted")
		}
		return notFoundOr(err, "failed to delete medication")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("medication", err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}
