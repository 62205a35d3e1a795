package tour

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for tour catalog operations.
type Service interface {
	ListTours(ctx context.Context, filter models.TourFilter, page, limit int) ([]models.Tour, int, error)
	GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	CreateTour(ctx context.Context, req models.CreateTourRequest) (*models.Tour, error)
	UpdateTour(ctx context.Context, id uuid.UUID, req models.UpdateTourRequest) (*models.Tour, error)
	DeleteTour(ctx context.Context, id uuid.UUID) error
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

func (s *ServiceImpl) ListTours(ctx context.Context, filter models.TourFilter, page, limit int) ([]models.Tour, int, error) {
	ctx, span := otel.Tracer("TourService").Start(ctx, "ListTours", trace.WithAttributes(
		attribute.String("filter.search", filter.Search),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	))
	defer span.End()

	tours, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("failed to list tours", zap.Error(err))
		span.RecordError(err)
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("tours.count", len(tours)), attribute.Int("tours.total", total))
	span.SetStatus(codes.Ok, "Tours listed")
	return tours, total, nil
}

func (s *ServiceImpl) GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	ctx, span := otel.Tracer("TourService").Start(ctx, "GetTour", trace.WithAttributes(
		attribute.String("tour.id", id.String()),
	))
	defer span.End()

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "Tour retrieved")
	return t, nil
}

func (s *ServiceImpl) CreateTour(ctx context.Context, req models.CreateTourRequest) (*models.Tour, error) {
	t, err := s.repo.Create(ctx, req)
	if err != nil {
		s.logger.Error("failed to create tour", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *ServiceImpl) UpdateTour(ctx context.Context, id uuid.UUID, req models.UpdateTourRequest) (*models.Tour, error) {
	t, err := s.repo.Update(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update tour", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *ServiceImpl) DeleteTour(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete tour", zap.String("id", id.String()), zap.Error(err))
		return err
	}
	return nil
}
