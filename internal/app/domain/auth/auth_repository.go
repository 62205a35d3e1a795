package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

var _ Repo = (*PostgresAuthRepo)(nil)

// Repo is the persistence contract for admin accounts.
type Repo interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	query := `
        SELECT id, email, password_hash, role, created_at
        FROM admin_users
        WHERE email = $1
    `
	var admin models.AdminUser
	err := r.pgpool.QueryRow(ctx, query, email).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to query admin user: %w", err)
	}
	return &admin, nil
}
