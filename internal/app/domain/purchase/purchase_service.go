package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tourika/audiotour/internal/app/models"
	"github.com/tourika/audiotour/internal/observability/metrics"
)

// UserFinder resolves device identifiers to users.
type UserFinder interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error)
}

// TourFinder checks tour existence.
type TourFinder interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for purchases and access
// evaluation.
type Service interface {
	AccessForDevice(ctx context.Context, deviceID string, tour *models.Tour) (*models.Access, error)
	PurchaseTour(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResult, error)
	RestorePurchases(ctx context.Context, req models.RestoreRequest) ([]models.Purchase, error)
	GetStatus(ctx context.Context, transactionID string) (*models.PaymentStatus, error)
	ListUserPurchases(ctx context.Context, deviceID string) ([]models.Purchase, error)
}

type ServiceImpl struct {
	logger     *zap.Logger
	repo       Repository
	users      UserFinder
	tours      TourFinder
	validators map[string]ReceiptValidator
}

func NewServiceImpl(repo Repository, users UserFinder, tours TourFinder, validators map[string]ReceiptValidator, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		users:      users,
		tours:      tours,
		validators: validators,
	}
}

// EvaluateAccess computes what a possibly-absent purchase lets a user see of
// a tour. A valid purchase grants the full POI list; otherwise the preview
// is exactly the POIs flagged free, kept in their order_index order. The
// free flags need not be contiguous or start at the first stop.
func EvaluateAccess(p *models.Purchase, tour *models.Tour, now time.Time) models.Access {
	if p != nil && p.IsValid(now) {
		pois := tour.POIs
		if pois == nil {
			pois = []models.POI{}
		}
		return models.Access{HasFullAccess: true, VisiblePOIs: pois}
	}

	visible := []models.POI{}
	for _, poi := range tour.POIs {
		if poi.IsFree {
			visible = append(visible, poi)
		}
	}
	return models.Access{HasFullAccess: false, VisiblePOIs: visible}
}

// AccessForDevice resolves the device to a user and evaluates their access
// to the tour. Unknown devices get the anonymous free preview rather than
// an error.
func (s *ServiceImpl) AccessForDevice(ctx context.Context, deviceID string, tour *models.Tour) (*models.Access, error) {
	user, err := s.users.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			access := EvaluateAccess(nil, tour, time.Now())
			return &access, nil
		}
		return nil, err
	}

	var p *models.Purchase
	p, err = s.repo.GetByUserAndTour(ctx, user.ID, tour.ID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		p = nil
	}

	access := EvaluateAccess(p, tour, time.Now())
	return &access, nil
}

// PurchaseTour runs the purchase workflow: validate the store receipt for
// the platform, resolve the caller and the tour, then record the purchase.
// A second purchase of the same tour by the same user fails with
// ErrAlreadyPurchased no matter how the attempts interleave.
func (s *ServiceImpl) PurchaseTour(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResult, error) {
	ctx, span := otel.Tracer("PurchaseService").Start(ctx, "PurchaseTour", trace.WithAttributes(
		attribute.String("tour.id", req.TourID.String()),
		attribute.String("platform", req.Platform),
	))
	defer span.End()

	validator, ok := s.validators[req.Platform]
	if !ok {
		return nil, s.failPurchase(span, req.Platform, fmt.Errorf("%w: invalid platform", models.ErrValidation))
	}

	// The receipt is judged before anything is looked up, so a bad receipt
	// is reported as such even when the tour or user is also missing.
	info, err := validator.ValidateReceipt(ctx, req.Receipt)
	if err != nil {
		return nil, s.failPurchase(span, req.Platform, err)
	}

	var user *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.GetByDeviceID(gctx, req.DeviceID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w: user for device %s", models.ErrNotFound, req.DeviceID)
			}
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		exists, err := s.tours.Exists(gctx, req.TourID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: tour %s", models.ErrNotFound, req.TourID)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.failPurchase(span, req.Platform, err)
	}

	receipt := req.Receipt
	created, err := s.repo.Create(ctx, &models.Purchase{
		UserID:        user.ID,
		TourID:        req.TourID,
		Platform:      req.Platform,
		TransactionID: &info.TransactionID,
		ReceiptData:   &receipt,
		ExpiresAt:     info.ExpiresAt,
	})
	if err != nil {
		return nil, s.failPurchase(span, req.Platform, err)
	}

	if m := metrics.Get(); m != nil {
		m.PurchasesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("platform", req.Platform)))
	}

	span.SetStatus(codes.Ok, "Purchase recorded")
	return &models.PurchaseResult{
		PurchaseID:    created.ID,
		TransactionID: created.TransactionID,
		ExpiresAt:     created.ExpiresAt,
	}, nil
}

func (s *ServiceImpl) failPurchase(span trace.Span, platform string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Purchase rejected")
	if m := metrics.Get(); m != nil {
		m.PurchaseFailuresTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("platform", platform)))
	}
	s.logger.Warn("Purchase rejected", zap.String("platform", platform), zap.Error(err))
	return err
}

// RestorePurchases replays the store-side purchase history for the device
// and returns everything the user owns on that platform. History items
// already recorded are skipped via the duplicate guard; items whose store
// product maps to a tour are recreated, the rest are logged and dropped.
func (s *ServiceImpl) RestorePurchases(ctx context.Context, req models.RestoreRequest) ([]models.Purchase, error) {
	validator, ok := s.validators[req.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: invalid platform", models.ErrValidation)
	}

	user, err := s.users.GetByDeviceID(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}

	history, err := validator.RestoreHistory(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase history: %w", err)
	}

	for _, item := range history {
		existing, err := s.repo.GetByTransactionID(ctx, item.TransactionID)
		if err == nil && existing != nil {
			continue
		}
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}

		if item.TourID == uuid.Nil {
			// store history without a known tour mapping cannot be replayed
			s.logger.Warn("Unmapped store transaction in restore history",
				zap.String("transaction_id", item.TransactionID),
				zap.String("platform", req.Platform),
			)
			continue
		}

		transactionID := item.TransactionID
		_, err = s.repo.Create(ctx, &models.Purchase{
			UserID:        user.ID,
			TourID:        item.TourID,
			Platform:      req.Platform,
			TransactionID: &transactionID,
			ExpiresAt:     item.ExpiresAt,
		})
		if err != nil && !errors.Is(err, models.ErrAlreadyPurchased) {
			return nil, err
		}
	}

	return s.repo.ListByUserAndPlatform(ctx, user.ID, req.Platform)
}

// GetStatus reports the state of a recorded transaction. Every stored
// purchase is a completed payment; pending states never hit the database.
func (s *ServiceImpl) GetStatus(ctx context.Context, transactionID string) (*models.PaymentStatus, error) {
	p, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	status := "completed"
	if !p.IsValid(time.Now()) {
		status = "expired"
	}

	return &models.PaymentStatus{
		TransactionID: transactionID,
		Status:        status,
		TourID:        p.TourID,
		PurchasedAt:   p.PurchasedAt,
	}, nil
}

// ListUserPurchases returns all purchases for the user behind a device id.
func (s *ServiceImpl) ListUserPurchases(ctx context.Context, deviceID string) ([]models.Purchase, error) {
	user, err := s.users.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, user.ID)
}
