package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	FindOrCreate(ctx context.Context, deviceID, platform string) (*models.User, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewRepository(pgxpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

// FindOrCreate registers a device, or returns the existing user. When the
// device re-registers from a different platform the stored platform is
// updated in place.
func (r *RepositoryImpl) FindOrCreate(ctx context.Context, deviceID, platform string) (*models.User, error) {
	query := `
        INSERT INTO users (device_id, platform)
        VALUES ($1, $2)
        ON CONFLICT (device_id) DO UPDATE SET platform = EXCLUDED.platform
        RETURNING id, device_id, platform, created_at`
	var u models.User
	err := r.pgpool.QueryRow(ctx, query, deviceID, platform).Scan(
		&u.ID, &u.DeviceID, &u.Platform, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	r.logger.Info("Device registered",
		zap.String("user_id", u.ID.String()),
		zap.String("device_id", deviceID),
	)
	return &u, nil
}

func (r *RepositoryImpl) GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	query := `SELECT id, device_id, platform, created_at FROM users WHERE device_id = $1`
	var u models.User
	err := r.pgpool.QueryRow(ctx, query, deviceID).Scan(
		&u.ID, &u.DeviceID, &u.Platform, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: device %s", models.ErrNotFound, deviceID)
		}
		return nil, fmt.Errorf("failed to get user by device: %w", err)
	}
	return &u, nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
