package poi

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
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.POI, error)
	Get(ctx context.Context, id uuid.UUID) (*models.POI, error)
	Create(ctx context.Context, tourID uuid.UUID, req models.CreatePOIRequest) (*models.POI, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdatePOIRequest) (*models.POI, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, tourID uuid.UUID, orders []models.POIOrder) error
	BatchCreate(ctx context.Context, tourID uuid.UUID, pois []models.POI) ([]models.POI, error)
	NextOrderIndex(ctx context.Context, tourID uuid.UUID) (int, error)
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

const poiColumns = "id, tour_id, title, description, latitude, longitude, is_free, order_index, audio_url, created_at, updated_at"

func scanPOI(row pgx.Row) (*models.POI, error) {
	var p models.POI
	err := row.Scan(
		&p.ID, &p.TourID, &p.Title, &p.Description,
		&p.Latitude, &p.Longitude, &p.IsFree, &p.OrderIndex,
		&p.AudioURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepositoryImpl) ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois WHERE tour_id = $1 ORDER BY order_index ASC`
	rows, err := r.pgpool.Query(ctx, query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list POIs: %w", err)
	}
	defer rows.Close()

	pois := []models.POI{}
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan POI row: %w", err)
		}
		pois = append(pois, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read POI rows: %w", err)
	}
	return pois, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois WHERE id = $1`
	p, err := scanPOI(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: POI %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get POI: %w", err)
	}
	return p, nil
}

// Create appends a POI to a tour. A nil OrderIndex means "after the current
// last stop".
func (r *RepositoryImpl) Create(ctx context.Context, tourID uuid.UUID, req models.CreatePOIRequest) (*models.POI, error) {
	orderIndex := 0
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	} else {
		next, err := r.NextOrderIndex(ctx, tourID)
		if err != nil {
			return nil, err
		}
		orderIndex = next
	}

	query := `
        INSERT INTO pois (tour_id, title, description, latitude, longitude, is_free, order_index, audio_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + poiColumns
	p, err := scanPOI(r.pgpool.QueryRow(ctx, query,
		tourID, req.Title, req.Description,
		req.Latitude, req.Longitude, req.IsFree, orderIndex, req.AudioURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert POI: %w", err)
	}

	r.logger.Info("POI created",
		zap.String("id", p.ID.String()),
		zap.String("tour_id", tourID.String()),
		zap.Int("order_index", p.OrderIndex),
	)
	return p, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, id uuid.UUID, req models.UpdatePOIRequest) (*models.POI, error) {
	query := `
        UPDATE pois SET
            title = COALESCE($2, title),
            description = COALESCE($3, description),
            latitude = COALESCE($4, latitude),
            longitude = COALESCE($5, longitude),
            is_free = COALESCE($6, is_free),
            order_index = COALESCE($7, order_index),
            audio_url = COALESCE($8, audio_url),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + poiColumns
	p, err := scanPOI(r.pgpool.QueryRow(ctx, query,
		id, req.Title, req.Description,
		req.Latitude, req.Longitude, req.IsFree, req.OrderIndex, req.AudioURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: POI %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update POI: %w", err)
	}
	return p, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM pois WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete POI: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: POI %s", models.ErrNotFound, id)
	}
	return nil
}

// Reorder applies every order change in one transaction. Each update is
// scoped to the tour, so an id belonging to another tour (or to nothing)
// aborts the whole batch and no index changes.
func (r *RepositoryImpl) Reorder(ctx context.Context, tourID uuid.UUID, orders []models.POIOrder) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	for _, o := range orders {
		tag, err := tx.Exec(ctx,
			`UPDATE pois SET order_index = $3, updated_at = NOW() WHERE id = $1 AND tour_id = $2`,
			o.ID, tourID, o.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to reorder POI %s: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: POI %s in tour %s", models.ErrNotFound, o.ID, tourID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("POIs reordered",
		zap.String("tour_id", tourID.String()),
		zap.Int("count", len(orders)),
	)
	return nil
}

// BatchCreate inserts ingested route points in one transaction; a failure
// part way leaves nothing behind so the upload can be retried wholesale.
func (r *RepositoryImpl) BatchCreate(ctx context.Context, tourID uuid.UUID, pois []models.POI) ([]models.POI, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	query := `
        INSERT INTO pois (tour_id, title, description, latitude, longitude, is_free, order_index, audio_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + poiColumns

	created := make([]models.POI, 0, len(pois))
	for _, p := range pois {
		row, err := scanPOI(tx.QueryRow(ctx, query,
			tourID, p.Title, p.Description,
			p.Latitude, p.Longitude, p.IsFree, p.OrderIndex, p.AudioURL,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to insert route point: %w", err)
		}
		created = append(created, *row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// NextOrderIndex returns one past the highest order_index in the tour, or 0
// for an empty tour.
func (r *RepositoryImpl) NextOrderIndex(ctx context.Context, tourID uuid.UUID) (int, error) {
	var next int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM pois WHERE tour_id = $1`,
		tourID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next order index: %w", err)
	}
	return next, nil
}
