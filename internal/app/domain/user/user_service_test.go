package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

// --- Mocks for Dependencies ---

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) FindOrCreate(ctx context.Context, deviceID, platform string) (*models.User, error) {
	args := m.Called(ctx, deviceID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	platform := models.PlatformIOS

	t.Run("CreatesUserForNewDevice", func(t *testing.T) {
		repo := new(MockUserRepo)
		service := NewServiceImpl(repo, zap.NewNop())

		u := &models.User{ID: uuid.New(), DeviceID: "device-1", Platform: &platform, CreatedAt: time.Now()}
		repo.On("FindOrCreate", ctx, "device-1", models.PlatformIOS).Return(u, nil).Once()

		got, err := service.Register(ctx, models.RegisterUserRequest{DeviceID: "device-1", Platform: models.PlatformIOS})
		require.NoError(t, err)
		assert.Equal(t, u, got)
		repo.AssertExpectations(t)
	})

	t.Run("RepeatedRegistrationReturnsSameUser", func(t *testing.T) {
		repo := new(MockUserRepo)
		service := NewServiceImpl(repo, zap.NewNop())

		u := &models.User{ID: uuid.New(), DeviceID: "device-1", Platform: &platform}
		repo.On("FindOrCreate", ctx, "device-1", models.PlatformIOS).Return(u, nil).Twice()

		first, err := service.Register(ctx, models.RegisterUserRequest{DeviceID: "device-1", Platform: models.PlatformIOS})
		require.NoError(t, err)
		second, err := service.Register(ctx, models.RegisterUserRequest{DeviceID: "device-1", Platform: models.PlatformIOS})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("RejectsUnknownPlatform", func(t *testing.T) {
		repo := new(MockUserRepo)
		service := NewServiceImpl(repo, zap.NewNop())

		_, err := service.Register(ctx, models.RegisterUserRequest{DeviceID: "device-1", Platform: "windows_phone"})
		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "FindOrCreate")
	})
}

func TestGetByDeviceID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepo)
	service := NewServiceImpl(repo, zap.NewNop())

	repo.On("GetByDeviceID", ctx, "missing-device").Return(nil, models.ErrNotFound).Once()

	_, err := service.GetByDeviceID(ctx, "missing-device")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
