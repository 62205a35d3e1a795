package purchase

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	return &RepositoryImpl{logger: zap.NewNop(), pgpool: mockPool}, mockPool
}

func purchaseRows(p models.Purchase) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "tour_id", "platform", "transaction_id", "receipt_data", "purchased_at", "expires_at",
	}).AddRow(p.ID, p.UserID, p.TourID, p.Platform, p.TransactionID, p.ReceiptData, p.PurchasedAt, p.ExpiresAt)
}

func TestRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tourID := uuid.New()
	txn := "txn_1"

	t.Run("InsertsWhenNoExistingPurchase", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		stored := models.Purchase{
			ID:            uuid.New(),
			UserID:        userID,
			TourID:        tourID,
			Platform:      models.PlatformIOS,
			TransactionID: &txn,
			PurchasedAt:   time.Now(),
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND tour_id = $2)`)).
			WithArgs(userID, tourID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mockPool.ExpectQuery(`INSERT INTO purchases`).
			WithArgs(userID, tourID, models.PlatformIOS, &txn, (*string)(nil), (*time.Time)(nil)).
			WillReturnRows(purchaseRows(stored))
		mockPool.ExpectCommit()

		created, err := repo.Create(ctx, &models.Purchase{
			UserID:        userID,
			TourID:        tourID,
			Platform:      models.PlatformIOS,
			TransactionID: &txn,
		})

		require.NoError(t, err)
		assert.Equal(t, stored.ID, created.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RejectsDuplicatePair", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND tour_id = $2)`)).
			WithArgs(userID, tourID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mockPool.ExpectRollback()

		created, err := repo.Create(ctx, &models.Purchase{
			UserID:   userID,
			TourID:   tourID,
			Platform: models.PlatformIOS,
		})

		assert.Nil(t, created)
		assert.ErrorIs(t, err, models.ErrAlreadyPurchased)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryGetByUserAndTour(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		userID := uuid.New()
		tourID := uuid.New()

		mockPool.ExpectQuery(`SELECT .+ FROM purchases WHERE user_id = \$1 AND tour_id = \$2`).
			WithArgs(userID, tourID).
			WillReturnError(pgx.ErrNoRows)

		p, err := repo.GetByUserAndTour(ctx, userID, tourID)

		assert.Nil(t, p)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
