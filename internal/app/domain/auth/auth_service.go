package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Service authenticates admin panel users.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.AdminLoginResponse, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repo
	jwt    *JWTService
	config JWTConfig
}

func NewService(repo Repo, config JWTConfig, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		jwt:    NewJWTService(),
		config: config,
	}
}

// Login verifies credentials against the stored bcrypt hash and issues a
// signed token. Wrong email and wrong password are indistinguishable to the
// caller.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (*models.AdminLoginResponse, error) {
	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("Admin login failed", zap.String("email", email), zap.Error(err))
		return nil, models.ErrUnauthorized
	}

	if !s.jwt.CheckPassword(admin.PasswordHash, password) {
		s.logger.Warn("Admin login rejected: bad password", zap.String("email", email))
		return nil, models.ErrUnauthorized
	}

	token, err := s.jwt.GenerateToken(s.config, admin.ID.String(), admin.Email, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue admin token: %w", err)
	}

	s.logger.Info("Admin login successful",
		zap.String("admin_id", admin.ID.String()),
		zap.String("email", admin.Email),
	)

	return &models.AdminLoginResponse{Token: token, User: *admin}, nil
}
