package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/models"
)

type authServiceFixture struct {
	service   *AuthService
	userRepo  *mockUserRepo
	tokenRepo *mockRefreshTokenRepo
	cfg       *config.Config
}

func newAuthServiceFixture(users ...models.User) *authServiceFixture {
	userRepo := newMockUserRepo(users...)
	tokenRepo := newMockRefreshTokenRepo()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 24}
	return &authServiceFixture{
		service:   NewAuthService(userRepo, tokenRepo, NewEmailService(cfg), cfg),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
	}
}

func activeUser(t *testing.T, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:                1,
		Email:             "maria@example.com",
		EncryptedPassword: string(hashed),
		FullName:          "Maria Lopez",
		Role:              models.RoleManager,
		Status:            models.StatusActive,
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthServiceFixture(activeUser(t, "password123"))

	result, err := f.service.Login(context.Background(), "maria@example.com", "password123")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "maria@example.com", result.User.Email)

	// Only the hash of the refresh token is persisted
	stored, err := f.tokenRepo.FindByHash(context.Background(), hashToken(result.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.UserID)
	assert.Nil(t, stored.RevokedAt)

	parsed, err := jwt.Parse(result.Token, func(token *jwt.Token) (any, error) {
		return []byte(f.cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(1), claims["user_id"])
	assert.Equal(t, models.RoleManager, claims["role"])
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthServiceFixture(activeUser(t, "password123"))

	_, err := f.service.Login(context.Background(), "maria@example.com", "nope")

	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthServiceFixture()

	_, err := f.service.Login(context.Background(), "nobody@example.com", "password123")

	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "password123")
	user.Status = models.StatusSuspended
	f := newAuthServiceFixture(user)

	_, err := f.service.Login(context.Background(), "maria@example.com", "password123")

	assert.EqualError(t, err, "account is inactive or suspended")
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture(activeUser(t, "password123"))

	login, err := f.service.Login(ctx, "maria@example.com", "password123")
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token was revoked on use
	old, err := f.tokenRepo.FindByHash(ctx, hashToken(login.RefreshToken))
	require.NoError(t, err)
	assert.NotNil(t, old.RevokedAt)

	_, err = f.service.RefreshToken(ctx, login.RefreshToken)
	assert.EqualError(t, err, "token expired or revoked")
}

func TestRefreshTokenExpired(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture(activeUser(t, "password123"))

	f.tokenRepo.Create(ctx, &models.RefreshToken{
		UserID:    1,
		TokenHash: hashToken("stale"),
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	_, err := f.service.RefreshToken(ctx, "stale")

	assert.EqualError(t, err, "token expired or revoked")
}

func TestRefreshTokenUnknown(t *testing.T) {
	f := newAuthServiceFixture(activeUser(t, "password123"))

	_, err := f.service.RefreshToken(context.Background(), "never-issued")

	assert.EqualError(t, err, "invalid token")
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthServiceFixture(activeUser(t, "password123"))

	login, err := f.service.Login(ctx, "maria@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, login.RefreshToken))

	stored, err := f.tokenRepo.FindByHash(ctx, hashToken(login.RefreshToken))
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)

	// Logging out an unknown token is a no-op
	assert.NoError(t, f.service.Logout(ctx, "never-issued"))
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthServiceFixture()

	// Unknown emails report success so the endpoint cannot probe accounts
	assert.NoError(t, f.service.RequestPasswordReset(context.Background(), "nobody@example.com"))
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "password123")
	code := "483920"
	sentAt := time.Now().UTC().Add(-2 * time.Minute)
	user.RecoveryCode = &code
	user.RecoveryCodeSentAt = &sentAt
	f := newAuthServiceFixture(user)

	login, err := f.service.Login(ctx, "maria@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(ctx, "maria@example.com", "483920", "newpassword1"))

	updated, err := f.userRepo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.EncryptedPassword), []byte("newpassword1")))
	assert.Nil(t, updated.RecoveryCode)
	assert.Nil(t, updated.RecoveryCodeSentAt)

	// Existing sessions are invalidated
	stored, err := f.tokenRepo.FindByHash(ctx, hashToken(login.RefreshToken))
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)
}

func TestResetPasswordWrongCode(t *testing.T) {
	user := activeUser(t, "password123")
	code := "483920"
	sentAt := time.Now().UTC()
	user.RecoveryCode = &code
	user.RecoveryCodeSentAt = &sentAt
	f := newAuthServiceFixture(user)

	err := f.service.ResetPassword(context.Background(), "maria@example.com", "000000", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidRecoveryCode)
}

func TestResetPasswordExpiredCode(t *testing.T) {
	user := activeUser(t, "password123")
	code := "483920"
	sentAt := time.Now().UTC().Add(-20 * time.Minute)
	user.RecoveryCode = &code
	user.RecoveryCodeSentAt = &sentAt
	f := newAuthServiceFixture(user)

	err := f.service.ResetPassword(context.Background(), "maria@example.com", "483920", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidRecoveryCode)
}

func TestResetPasswordNoCodeRequested(t *testing.T) {
	f := newAuthServiceFixture(activeUser(t, "password123"))

	err := f.service.ResetPassword(context.Background(), "maria@example.com", "483920", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidRecoveryCode)
}

func TestResetPasswordTooShort(t *testing.T) {
	f := newAuthServiceFixture(activeUser(t, "password123"))

	err := f.service.ResetPassword(context.Background(), "maria@example.com", "483920", "short")

	assert.ErrorIs(t, err, ErrValidation)
}
