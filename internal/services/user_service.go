package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/pkg/logger"
)

// CreateUserInput is the payload for creating a user account
type CreateUserInput struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	Locale   string  `json:"locale"`
}

// UpdateUserInput is the payload for updating a user account
type UpdateUserInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Locale   *string `json:"locale"`
}

type UserService struct {
	repo     repository.UserRepository
	unitRepo repository.UnitRepository
	emailSvc *EmailService
	auditSvc *AuditService
}

func NewUserService(repo repository.UserRepository, unitRepo repository.UnitRepository, emailSvc *EmailService, auditSvc *AuditService) *UserService {
	return &UserService{
		repo:     repo,
		unitRepo: unitRepo,
		emailSvc: emailSvc,
		auditSvc: auditSvc,
	}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}

// Create registers a user and sends the welcome email
func (s *UserService) Create(ctx context.Context, input *CreateUserInput, createdBy *uint, ip string) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleResident
	}
	if role != models.RoleAdmin && role != models.RoleManager && role != models.RoleResident {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             input.Email,
		EncryptedPassword: string(hashed),
		FullName:          input.FullName,
		Role:              role,
		CreatedBy:         createdBy,
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Locale != "" {
		user.Locale = input.Locale
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, createdBy, models.AuditActionCreate, "user", user.ID, user.ToResponse(), ip)

	if err := s.emailSvc.SendAccountCreated(ctx, user); err != nil {
		logger.Error(fmt.Sprintf("failed to send welcome email to user %d: %v", user.ID, err))
	}

	return user, nil
}

// Update changes profile and admin-managed fields
func (s *UserService) Update(ctx context.Context, id uint, input *UpdateUserInput, actorID *uint, ip string) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		if *input.Role != models.RoleAdmin && *input.Role != models.RoleManager && *input.Role != models.RoleResident {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *input.Role)
		}
		user.Role = *input.Role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.Locale != nil {
		user.Locale = *input.Locale
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "user", user.ID, input, ip)
	return user, nil
}

// SoftDelete discards a user account. Units keep pointing at the owner so
// history stays intact.
func (s *UserService) SoftDelete(ctx context.Context, id uint, actorID *uint, ip string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "user", id, nil, ip)
	return nil
}

// ChangePassword verifies the current password before setting a new one
func (s *UserService) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(currentPassword)); err != nil {
		return ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.EncryptedPassword = string(hashed)
	return s.repo.Update(ctx, user)
}

// Units returns the active units owned by the user
func (s *UserService) Units(ctx context.Context, userID uint) ([]models.Unit, error) {
	return s.unitRepo.FindByOwner(ctx, userID)
}
