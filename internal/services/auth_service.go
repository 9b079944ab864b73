package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/pkg/logger"
)

// recoveryCodeTTL is how long a password recovery code stays valid
const recoveryCodeTTL = 15 * time.Minute

// AuthService handles authentication operations
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	emailSvc         *EmailService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, rtRepo repository.RefreshTokenRepository, emailSvc *EmailService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: rtRepo,
		emailSvc:         emailSvc,
		cfg:              cfg,
	}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if !user.IsActive() {
		return nil, errors.New("account is inactive or suspended")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, errors.New("failed to generate refresh token")
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
	}, nil
}

// RefreshToken rotates a refresh token and returns new tokens
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	rt, err := s.refreshTokenRepo.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, errors.New("invalid token")
	}

	if !rt.IsValid(time.Now()) {
		return nil, errors.New("token expired or revoked")
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, ErrNotFound
	}

	if !user.IsActive() {
		return nil, errors.New("account is inactive or suspended")
	}

	// Single use: the old token is revoked before a new one is issued
	if err := s.refreshTokenRepo.Revoke(ctx, rt.ID); err != nil {
		return nil, err
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	newRefreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, errors.New("failed to generate refresh token")
	}

	return &LoginResult{
		Token:        token,
		RefreshToken: newRefreshToken,
		User:         user.ToResponse(),
	}, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rt, err := s.refreshTokenRepo.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil
	}
	return s.refreshTokenRepo.Revoke(ctx, rt.ID)
}

// RequestPasswordReset emails a short-lived recovery code. It reports
// success even for unknown emails so the endpoint cannot be used to probe
// which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}

	code, err := generateRecoveryCode()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.userRepo.SetRecoveryCode(ctx, user.ID, code, now); err != nil {
		return err
	}

	if err := s.emailSvc.SendRecoveryCode(ctx, user, code); err != nil {
		logger.Error(fmt.Sprintf("failed to send recovery code to user %d: %v", user.ID, err))
		return err
	}
	return nil
}

// ResetPassword verifies a recovery code and sets a new password. All of
// the user's refresh tokens are revoked afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return ErrInvalidRecoveryCode
	}

	if user.RecoveryCode == nil || user.RecoveryCodeSentAt == nil {
		return ErrInvalidRecoveryCode
	}
	if *user.RecoveryCode != code {
		return ErrInvalidRecoveryCode
	}
	if time.Since(*user.RecoveryCodeSentAt) > recoveryCodeTTL {
		return ErrInvalidRecoveryCode
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.EncryptedPassword = string(hashed)
	user.RecoveryCode = nil
	user.RecoveryCodeSentAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.refreshTokenRepo.RevokeAllForUser(ctx, user.ID)
}

// generateJWT creates a new JWT token for a user
func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// generateRefreshToken creates a new refresh token. Only its hash is
// stored; the raw value goes to the client once.
func (s *AuthService) generateRefreshToken(ctx context.Context, userID uint) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(bytes)

	rt := &models.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}
	if err := s.refreshTokenRepo.Create(ctx, rt); err != nil {
		return "", err
	}
	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateRecoveryCode returns a 6 digit numeric code
func generateRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
