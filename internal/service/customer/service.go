package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

// Service is the admin's contact book of customer accounts.
type Service struct {
	repo repository.UserRepository
	log  *logger.Logger
}

func NewService(repo repository.UserRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log.Component("customer")}
}

// List returns customers whose name, email or phone contains query.
func (s *Service) List(ctx context.Context, query string) ([]*model.User, error) {
	users, err := s.repo.Search(ctx, model.RoleCustomer, query)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to search customers: %w", err))
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// Get returns the customer with id. Staff accounts are not customers.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get customer")
	}
	if user.Role != model.RoleCustomer {
		return nil, apperrors.NewNotFound("customer", nil)
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCustomerRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

	var problems []string
	if name == "" {
		problems = append(problems, "name is required")
	}
	if emailAddr == "" {
		problems = append(problems, "email is required")
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidation("invalid customer", problems...)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = emailAddr
	user.Phone = strings.TrimSpace(req.Phone)

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered",
				fmt.Sprintf("%s belongs to another account", emailAddr))
		}
		return nil, notFoundOr(err, "failed to update customer")
	}
	s.log.Info("customer updated", "customer_id", id.String())
	return user, nil
}

// Delete removes a customer without pets or bookings.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("customer still has pets or bookings")
		}
		return notFoundOr(err, "failed to delete customer")
	}
	s.log.Info("customer deleted", "customer_id", id.String())
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("customer", err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}
