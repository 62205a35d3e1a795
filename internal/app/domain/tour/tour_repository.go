package tour

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
	"github.com/tourika/audiotour/internal/observability/metrics"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	List(ctx context.Context, filter models.TourFilter, page, limit int) ([]models.Tour, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, req models.CreateTourRequest) (*models.Tour, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateTourRequest) (*models.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tourColumns = "id, title, description, full_description, banner_url, audio_description_url, duration_minutes, distance_meters, price_cents, attributes, created_at, updated_at"

func scanTour(row pgx.Row) (*models.Tour, error) {
	var t models.Tour
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.FullDescription,
		&t.BannerURL, &t.AudioDescriptionURL,
		&t.DurationMinutes, &t.DistanceMeters,
		&t.PriceCents, &t.Attributes,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Attributes == nil {
		t.Attributes = []string{}
	}
	return &t, nil
}

func applyFilter(b sq.SelectBuilder, filter models.TourFilter) sq.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if len(filter.Attributes) > 0 {
		// every requested attribute must be present
		b = b.Where("attributes @> ?", filter.Attributes)
	}
	if filter.MinPrice != nil {
		b = b.Where(sq.GtOrEq{"price_cents": *filter.MinPrice})
	}
	if filter.MaxPrice != nil {
		b = b.Where(sq.LtOrEq{"price_cents": *filter.MaxPrice})
	}
	return b
}

// List returns a page of tours matching the filter plus the total match
// count. Listed tours carry no POIs; clients fetch them via Get.
func (r *RepositoryImpl) List(ctx context.Context, filter models.TourFilter, page, limit int) ([]models.Tour, int, error) {
	countQuery, countArgs, err := applyFilter(psql.Select("COUNT(*)").From("tours"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build tour count query: %w", err)
	}

	var total int
	if err := r.pgpool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		metrics.RecordDBError(ctx, "tour.count")
		return nil, 0, fmt.Errorf("failed to count tours: %w", err)
	}

	offset := (page - 1) * limit
	listQuery, listArgs, err := applyFilter(psql.Select(tourColumns).From("tours"), filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build tour list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		metrics.RecordDBError(ctx, "tour.list")
		return nil, 0, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	tours := make([]models.Tour, 0, limit)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tour row: %w", err)
		}
		t.POIs = []models.POI{}
		tours = append(tours, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read tour rows: %w", err)
	}

	return tours, total, nil
}

// Get loads a tour together with its POIs ordered by order_index.
func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	t, err := scanTour(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: tour %s", models.ErrNotFound, id)
		}
		metrics.RecordDBError(ctx, "tour.get")
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	poisQuery := `
        SELECT id, tour_id, title, description, latitude, longitude, is_free, order_index, audio_url, created_at, updated_at
        FROM pois
        WHERE tour_id = $1
        ORDER BY order_index ASC`
	rows, err := r.pgpool.Query(ctx, poisQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour POIs: %w", err)
	}
	defer rows.Close()

	t.POIs = []models.POI{}
	for rows.Next() {
		var p models.POI
		if err := rows.Scan(
			&p.ID, &p.TourID, &p.Title, &p.Description,
			&p.Latitude, &p.Longitude, &p.IsFree, &p.OrderIndex,
			&p.AudioURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan POI row: %w", err)
		}
		t.POIs = append(t.POIs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read POI rows: %w", err)
	}

	return t, nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tours WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tour existence: %w", err)
	}
	return exists, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, req models.CreateTourRequest) (*models.Tour, error) {
	attributes := req.Attributes
	if attributes == nil {
		attributes = []string{}
	}

	query := `
        INSERT INTO tours (title, description, full_description, banner_url, audio_description_url, duration_minutes, distance_meters, price_cents, attributes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + tourColumns
	t, err := scanTour(r.pgpool.QueryRow(ctx, query,
		req.Title, req.Description, req.FullDescription,
		req.BannerURL, req.AudioDescriptionURL,
		req.DurationMinutes, req.DistanceMeters,
		req.PriceCents, attributes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert tour: %w", err)
	}
	t.POIs = []models.POI{}

	r.logger.Info("Tour created", zap.String("id", t.ID.String()), zap.String("title", t.Title))
	return t, nil
}

// Update applies only the fields present in the request and bumps
// updated_at. Returns ErrNotFound when the tour does not exist.
func (r *RepositoryImpl) Update(ctx context.Context, id uuid.UUID, req models.UpdateTourRequest) (*models.Tour, error) {
	b := psql.Update("tours").Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id})

	if req.Title != nil {
		b = b.Set("title", *req.Title)
	}
	if req.Description != nil {
		b = b.Set("description", *req.Description)
	}
	if req.FullDescription != nil {
		b = b.Set("full_description", *req.FullDescription)
	}
	if req.BannerURL != nil {
		b = b.Set("banner_url", *req.BannerURL)
	}
	if req.AudioDescriptionURL != nil {
		b = b.Set("audio_description_url", *req.AudioDescriptionURL)
	}
	if req.DurationMinutes != nil {
		b = b.Set("duration_minutes", *req.DurationMinutes)
	}
	if req.DistanceMeters != nil {
		b = b.Set("distance_meters", *req.DistanceMeters)
	}
	if req.PriceCents != nil {
		b = b.Set("price_cents", *req.PriceCents)
	}
	if req.Attributes != nil {
		b = b.Set("attributes", req.Attributes)
	}

	query, args, err := b.Suffix("RETURNING " + tourColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tour update query: %w", err)
	}

	t, err := scanTour(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: tour %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	t.POIs = []models.POI{}

	return t, nil
}

// Delete removes the tour; its POIs go with it via ON DELETE CASCADE.
func (r *RepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: tour %s", models.ErrNotFound, id)
	}

	r.logger.Info("Tour deleted", zap.String("id", id.String()))
	return nil
}
