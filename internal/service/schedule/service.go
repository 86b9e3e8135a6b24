package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

// Service manages veterinarian work shifts.
type Service struct {
	repos *repository.Set
	log   *logger.Logger
}

func NewService(repos *repository.Set, log *logger.Logger) *Service {
	return &Service{repos: repos, log: log.Component("schedule")}
}

func parseWindow(start, end string) (model.ClockTime, model.ClockTime, error) {
	var problems []string
	s, err := model.ParseClockTime(start)
	if err != nil {
		problems = append(problems, err.Error())
	}
	e, err := model.ParseClockTime(end)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) == 0 && s >= e {
		problems = append(problems, fmt.Sprintf("start_time %s must be before end_time %s", s, e))
	}
	if len(problems) > 0 {
		return 0, 0, apperrors.NewValidation("invalid shift hours", problems...)
	}
	return s, e, nil
}

// AddShifts creates one shift per date. Dates the veterinarian already works
// are skipped and reported.
func (s *Service) AddShifts(ctx context.Context, req *model.AddShiftsRequest) (*model.AddShiftsResult, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if len(req.Dates) == 0 {
		return nil, apperrors.NewValidation("at least one date is required")
	}

	var problems []string
	dates := make([]model.Date, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := model.ParseDate(raw)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		dates = append(dates, d)
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidation("invalid dates", problems...)
	}

	vet, err := s.repos.Users.Get(ctx, req.VetID)
	if err != nil || vet.Role != model.RoleVeterinarian {
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("veterinarian", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get veterinarian: %w", err))
	}

	result := &model.AddShiftsResult{Created: []*model.WorkShift{}, Skipped: []model.Date{}}
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		seen := make(map[string]bool, len(dates))
		for _, d := range dates {
			if seen[d.String()] {
				continue
			}
			seen[d.String()] = true

			exists, err := s.repos.Schedule.Exists(ctx, vet.ID, d)
			if err != nil {
				return apperrors.NewInternal(fmt.Errorf("failed to check shift: %w", err))
			}
			if exists {
				result.Skipped = append(result.Skipped, d)
				continue
			}

			shift := &model.WorkShift{
				ID:        uuid.New(),
				VetID:     vet.ID,
				VetName:   vet.Name,
				Date:      d,
				StartTime: start,
				EndTime:   end,
			}
			if err := s.repos.Schedule.Create(ctx, shift); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					result.Skipped = append(result.Skipped, d)
					continue
				}
				return apperrors.NewInternal(fmt.Errorf("failed to create shift: %w", err))
			}
			result.Created = append(result.Created, shift)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shifts added",
		"vet_id", vet.ID.String(),
		"created", len(result.Created),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (s *Service) GetShift(ctx context.Context, id uuid.UUID) (*model.WorkShift, error) {
	shift, err := s.repos.Schedule.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get shift")
	}
	return shift, nil
}

// UpdateShift changes a shift's hours. Existing bookings are left as they are.
func (s *Service) UpdateShift(ctx context.Context, id uuid.UUID, req *model.UpdateShiftRequest) (*model.WorkShift, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	shift, err := s.repos.Schedule.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get shift")
	}
	shift.StartTime = start
	shift.EndTime = end

	if err := s.repos.Schedule.Update(ctx, shift); err != nil {
		return nil, notFoundOr(err, "failed to update shift")
	}
	return shift, nil
}

func (s *Service) DeleteShift(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Schedule.Delete(ctx, id); err != nil {
		return notFoundOr(err, "failed to delete shift")
	}
	return nil
}

func (s *Service) ListShifts(ctx context.Context, vetID uuid.UUID) ([]*model.WorkShift, error) {
	shifts, err := s.repos.Schedule.ListByVet(ctx, vetID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list shifts: %w", err))
	}
	return shifts, nil
}

func (s *Service) ListForDate(ctx context.Context, date model.Date) ([]*model.WorkShift, error) {
	shifts, err := s.repos.Schedule.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list shifts: %w", err))
	}
	return shifts, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("shift", err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}
