package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for device-bound users.
type Service interface {
	Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewServiceImpl(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// Register is idempotent per device: repeated calls return the same user.
func (s *ServiceImpl) Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	if !models.ValidPlatform(req.Platform) {
		return nil, fmt.Errorf("%w: invalid platform", models.ErrValidation)
	}

	u, err := s.repo.FindOrCreate(ctx, req.DeviceID, req.Platform)
	if err != nil {
		s.logger.Error("failed to register user", zap.String("device_id", req.DeviceID), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *ServiceImpl) GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	return s.repo.GetByDeviceID(ctx, deviceID)
}
