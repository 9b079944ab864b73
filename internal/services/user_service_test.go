package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/models"
)

func newUserServiceFixture(users ...models.User) (*UserService, *mockUserRepo) {
	userRepo := newMockUserRepo(users...)
	emailSvc := NewEmailService(&config.Config{})
	auditSvc := NewAuditService(&mockAuditLogRepo{})
	return NewUserService(userRepo, newMockUnitRepo(), emailSvc, auditSvc), userRepo
}

func TestCreateUser(t *testing.T) {
	service, userRepo := newUserServiceFixture()

	user, err := service.Create(context.Background(), &CreateUserInput{
		Email:    "maria@example.com",
		Password: "password123",
		FullName: "Maria Lopez",
		Phone:    refStr("+504 9999-0001"),
		Role:     models.RoleManager,
	}, nil, "")

	require.NoError(t, err)
	assert.Equal(t, "+504 9999-0001", user.Phone)
	assert.Equal(t, models.RoleManager, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte("password123")))

	stored, err := userRepo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", stored.Email)
}

func TestCreateUserWithoutPhone(t *testing.T) {
	service, _ := newUserServiceFixture()

	user, err := service.Create(context.Background(), &CreateUserInput{
		Email:    "carlos@example.com",
		Password: "password123",
		FullName: "Carlos Diaz",
	}, nil, "")

	require.NoError(t, err)
	assert.Empty(t, user.Phone)
	assert.Equal(t, models.RoleResident, user.Role)
}

func TestCreateUserUnknownRole(t *testing.T) {
	service, _ := newUserServiceFixture()

	_, err := service.Create(context.Background(), &CreateUserInput{
		Email:    "x@example.com",
		Password: "password123",
		FullName: "X",
		Role:     "superuser",
	}, nil, "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUserPartialFields(t *testing.T) {
	service, _ := newUserServiceFixture(models.User{
		ID:       1,
		Email:    "maria@example.com",
		FullName: "Maria Lopez",
		Phone:    "+504 9999-0001",
		Role:     models.RoleResident,
		Status:   models.StatusActive,
	})

	user, err := service.Update(context.Background(), 1, &UpdateUserInput{
		Phone: refStr("+504 9999-0002"),
		Role:  refStr(models.RoleManager),
	}, nil, "")

	require.NoError(t, err)
	assert.Equal(t, "+504 9999-0002", user.Phone)
	assert.Equal(t, models.RoleManager, user.Role)
	// Untouched fields keep their values
	assert.Equal(t, "Maria Lopez", user.FullName)
	assert.Equal(t, models.StatusActive, user.Status)
}

func TestUpdateUserUnknownRole(t *testing.T) {
	service, _ := newUserServiceFixture(models.User{ID: 1, Email: "maria@example.com"})

	_, err := service.Update(context.Background(), 1, &UpdateUserInput{
		Role: refStr("superuser"),
	}, nil, "")

	assert.ErrorIs(t, err, ErrValidation)
}
