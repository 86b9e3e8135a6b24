package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/security"
)

var errInvalidCredentials = apperrors.Unauthorized("invalid credentials")

type Service struct {
	userRepo  repository.UserRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	publicURL string
	log       *logger.Logger
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher,
	emailSvc email.Service, publicURL string, log *logger.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log.Component("auth"),
	}
}

// Register creates an unverified customer and mails a verification link.
// A mail failure does not undo the registration.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	user, err := s.createUser(ctx, req.Email, req.Password, req.Name, req.Phone, model.RoleCustomer, false)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtSvc.GeneratePurposeToken(user, auth.PurposeVerifyEmail)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	if err := s.emailSvc.SendVerification(ctx, user.Email, s.link("/verify-email", token)); err != nil {
		s.log.Error(err, "failed to send verification email", "user_id", user.ID.String())
	}
	return user, nil
}

// CreateStaff adds a veterinarian or admin. Staff accounts skip email
// verification.
func (s *Service) CreateStaff(ctx context.Context, req *model.CreateStaffRequest) (*model.User, error) {
	if req.Role != model.RoleAdmin && req.Role != model.RoleVeterinarian {
		return nil, apperrors.NewValidation("invalid role", "role must be admin or veterinarian")
	}
	return s.createUser(ctx, req.Email, req.Password, req.Name, req.Phone, req.Role, true)
}

func (s *Service) createUser(ctx context.Context, emailAddr, password, name, phone string, role model.Role, verified bool) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.NewValidation("invalid password", err.Error())
		}
		return nil, apperrors.NewInternal(err)
	}

	user := &model.User{
		Email:         strings.ToLower(strings.TrimSpace(emailAddr)),
		Name:          name,
		Phone:         phone,
		PasswordHash:  hash,
		Role:          role,
		EmailVerified: verified,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered")
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create user: %w", err))
	}
	return user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidatePurposeToken(token, auth.PurposeVerifyEmail)
	if err != nil {
		return apperrors.NewValidation("invalid or expired verification link")
	}
	if err := s.userRepo.MarkEmailVerified(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", err)
		}
		return apperrors.NewInternal(fmt.Errorf("failed to verify email: %w", err))
	}
	return nil
}

// Login checks credentials and issues an access token. Customers must have
// verified their email first.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	if user.Role == model.RoleCustomer && !user.EmailVerified {
		return nil, apperrors.Forbidden("please verify your email before signing in")
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.log.Info("user logged in", "user_id", user.ID.String(), "role", string(user.Role))
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtSvc.AccessTTL().Seconds()),
		User:        user,
	}, nil
}

// ForgotPassword mails a reset link when the address is known. Unknown
// addresses get the same outward result.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.NewInternal(fmt.Errorf("failed to get user: %w", err))
	}

	token, err := s.jwtSvc.GeneratePurposeToken(user, auth.PurposeResetPassword)
	if err != nil {
		return apperrors.NewInternal(err)
	}
	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, s.link("/reset-password", token)); err != nil {
		s.log.Error(err, "failed to send password reset email", "user_id", user.ID.String())
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.jwtSvc.ValidatePurposeToken(token, auth.PurposeResetPassword)
	if err != nil {
		return apperrors.NewValidation("invalid or expired reset link")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return apperrors.NewValidation("invalid password", err.Error())
		}
		return apperrors.NewInternal(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", err)
		}
		return apperrors.NewInternal(fmt.Errorf("failed to update password: %w", err))
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id model.Identity) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

// UpdateProfile changes the caller's name and phone. The email address is
// the login and stays as verified.
func (s *Service) UpdateProfile(ctx context.Context, id model.Identity, req *model.UpdateProfileRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidation("invalid profile", "name is required")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Phone = strings.TrimSpace(req.Phone)

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to update profile: %w", err))
	}
	return user, nil
}

func (s *Service) ListVeterinarians(ctx context.Context) ([]*model.User, error) {
	vets, err := s.userRepo.ListByRole(ctx, model.RoleVeterinarian)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list veterinarians: %w", err))
	}
	return vets, nil
}

func (s *Service) link(path, token string) string {
	return s.publicURL + "/api/v1/auth" + path + "?token=" + url.QueryEscape(token)
}
