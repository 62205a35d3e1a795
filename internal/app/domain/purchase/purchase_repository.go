package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
	"github.com/tourika/audiotour/internal/observability/metrics"
)

// pgxPool is the subset of pgxpool.Pool the repository needs; tests satisfy
// it with pgxmock.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Create(ctx context.Context, p *models.Purchase) (*models.Purchase, error)
	GetByUserAndTour(ctx context.Context, userID, tourID uuid.UUID) (*models.Purchase, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
	ListByUserAndPlatform(ctx context.Context, userID uuid.UUID, platform string) ([]models.Purchase, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool pgxPool
}

func NewRepository(pgxpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

const purchaseColumns = "id, user_id, tour_id, platform, transaction_id, receipt_data, purchased_at, expires_at"

func scanPurchase(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(
		&p.ID, &p.UserID, &p.TourID, &p.Platform,
		&p.TransactionID, &p.ReceiptData,
		&p.PurchasedAt, &p.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// uniqueViolation is the Postgres error code we map to ErrAlreadyPurchased.
const uniqueViolation = "23505"

// Create inserts a purchase inside a transaction, first checking the
// (user, tour) pair. Concurrent racers that slip past the check are caught
// by the unique constraint on the same pair, so at most one row ever wins.
func (r *RepositoryImpl) Create(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND tour_id = $2)`,
		p.UserID, p.TourID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing purchase: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: tour %s", models.ErrAlreadyPurchased, p.TourID)
	}

	query := `
        INSERT INTO purchases (user_id, tour_id, platform, transaction_id, receipt_data, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + purchaseColumns
	created, err := scanPurchase(tx.QueryRow(ctx, query,
		p.UserID, p.TourID, p.Platform, p.TransactionID, p.ReceiptData, p.ExpiresAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: tour %s", models.ErrAlreadyPurchased, p.TourID)
		}
		metrics.RecordDBError(ctx, "purchase.create")
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Purchase recorded",
		zap.String("id", created.ID.String()),
		zap.String("user_id", created.UserID.String()),
		zap.String("tour_id", created.TourID.String()),
		zap.String("platform", created.Platform),
	)
	return created, nil
}

func (r *RepositoryImpl) GetByUserAndTour(ctx context.Context, userID, tourID uuid.UUID) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = $1 AND tour_id = $2`
	p, err := scanPurchase(r.pgpool.QueryRow(ctx, query, userID, tourID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: purchase", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return p, nil
}

func (r *RepositoryImpl) GetByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE transaction_id = $1`
	p, err := scanPurchase(r.pgpool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", models.ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to get purchase by transaction: %w", err)
	}
	return p, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = $1 ORDER BY purchased_at DESC`
	return r.listPurchases(ctx, query, userID)
}

func (r *RepositoryImpl) ListByUserAndPlatform(ctx context.Context, userID uuid.UUID, platform string) ([]models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = $1 AND platform = $2 ORDER BY purchased_at DESC`
	return r.listPurchases(ctx, query, userID, platform)
}

func (r *RepositoryImpl) listPurchases(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchase rows: %w", err)
	}
	return purchases, nil
}
