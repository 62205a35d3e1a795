package poi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
	"github.com/tourika/audiotour/internal/observability/metrics"
)

// TourChecker verifies that a tour exists before POIs are attached to it.
type TourChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for POI management and route
// file ingestion.
type Service interface {
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.POI, error)
	CreatePOI(ctx context.Context, tourID uuid.UUID, req models.CreatePOIRequest) (*models.POI, error)
	UpdatePOI(ctx context.Context, id uuid.UUID, req models.UpdatePOIRequest) (*models.POI, error)
	DeletePOI(ctx context.Context, id uuid.UUID) error
	ReorderPOIs(ctx context.Context, tourID uuid.UUID, orders []models.POIOrder) error
	IngestRoute(ctx context.Context, tourID uuid.UUID, filename string, data []byte) ([]models.POI, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	tours  TourChecker
}

func NewServiceImpl(repo Repository, tours TourChecker, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		tours:  tours,
	}
}

func (s *ServiceImpl) requireTour(ctx context.Context, tourID uuid.UUID) error {
	exists, err := s.tours.Exists(ctx, tourID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: tour %s", models.ErrNotFound, tourID)
	}
	return nil
}

func (s *ServiceImpl) ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.POI, error) {
	if err := s.requireTour(ctx, tourID); err != nil {
		return nil, err
	}
	return s.repo.ListByTour(ctx, tourID)
}

func (s *ServiceImpl) CreatePOI(ctx context.Context, tourID uuid.UUID, req models.CreatePOIRequest) (*models.POI, error) {
	if err := s.requireTour(ctx, tourID); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, tourID, req)
	if err != nil {
		s.logger.Error("failed to create POI", zap.String("tour_id", tourID.String()), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *ServiceImpl) UpdatePOI(ctx context.Context, id uuid.UUID, req models.UpdatePOIRequest) (*models.POI, error) {
	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update POI", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *ServiceImpl) DeletePOI(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ReorderPOIs applies a bulk order change atomically: either every listed
// POI gets its new index or the tour keeps its original order.
func (s *ServiceImpl) ReorderPOIs(ctx context.Context, tourID uuid.UUID, orders []models.POIOrder) error {
	if err := s.requireTour(ctx, tourID); err != nil {
		return err
	}

	if err := s.repo.Reorder(ctx, tourID, orders); err != nil {
		s.logger.Error("failed to reorder POIs", zap.String("tour_id", tourID.String()), zap.Error(err))
		return err
	}
	return nil
}

// IngestRoute parses an uploaded KML/GPX file and creates its valid points
// as POIs of the tour in one batch.
func (s *ServiceImpl) IngestRoute(ctx context.Context, tourID uuid.UUID, filename string, data []byte) ([]models.POI, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "IngestRoute", trace.WithAttributes(
		attribute.String("tour.id", tourID.String()),
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()
	start := time.Now()

	if err := s.requireTour(ctx, tourID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	points, err := ParseRouteFile(filename, data, s.logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Route file rejected")
		return nil, err
	}

	created, err := s.repo.BatchCreate(ctx, tourID, buildRoutePOIs(points))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if m := metrics.Get(); m != nil {
		m.RouteIngestPoints.Add(ctx, int64(len(created)))
		m.RouteIngestDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.logger.Info("Route ingested",
		zap.String("tour_id", tourID.String()),
		zap.String("file", filename),
		zap.Int("points_created", len(created)),
	)
	span.SetAttributes(attribute.Int("points.created", len(created)))
	span.SetStatus(codes.Ok, "Route ingested")
	return created, nil
}
