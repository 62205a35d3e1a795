package poi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
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

func TestReorder(t *testing.T) {
	ctx := context.Background()
	tourID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	orders := []models.POIOrder{
		{ID: a, OrderIndex: 2},
		{ID: b, OrderIndex: 0},
		{ID: c, OrderIndex: 1},
	}

	t.Run("AppliesAllUpdates", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBegin()
		for _, o := range orders {
			mockPool.ExpectExec(`UPDATE pois SET order_index`).
				WithArgs(o.ID, tourID, o.OrderIndex).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		}
		mockPool.ExpectCommit()

		err := repo.Reorder(ctx, tourID, orders)

		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AbortsWholeBatchOnUnknownPOI", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE pois SET order_index`).
			WithArgs(a, tourID, 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(`UPDATE pois SET order_index`).
			WithArgs(b, tourID, 0).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectRollback()

		err := repo.Reorder(ctx, tourID, orders)

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AbortsWholeBatchOnStorageFailure", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE pois SET order_index`).
			WithArgs(a, tourID, 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(`UPDATE pois SET order_index`).
			WithArgs(b, tourID, 0).
			WillReturnError(errors.New("connection reset"))
		mockPool.ExpectRollback()

		err := repo.Reorder(ctx, tourID, orders)

		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestBatchCreateRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	tourID := uuid.New()

	repo, mockPool := newMockRepo(t)

	pois := []models.POI{
		{Title: "First", OrderIndex: 1, IsFree: true},
		{Title: "Second", OrderIndex: 2, IsFree: true},
	}

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(`INSERT INTO pois`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("constraint violation"))
	mockPool.ExpectRollback()

	created, err := repo.BatchCreate(ctx, tourID, pois)

	assert.Nil(t, created)
	assert.Error(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
