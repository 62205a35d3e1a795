package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

// ReceiptInfo is what a store validator extracts from a raw receipt or a
// history entry. TourID is the tour the store product maps to; uuid.Nil
// means the store item has no known product mapping and cannot be restored.
type ReceiptInfo struct {
	TransactionID string
	TourID        uuid.UUID
	ExpiresAt     *time.Time
}

// ReceiptValidator verifies a store receipt for one payment platform and can
// fetch the store-side purchase history for restore flows.
//
// The store integrations are not wired up yet. Every implementation below
// accepts any non-empty receipt and reports an empty history, which keeps the
// purchase and restore flows exercisable end to end while the real App
// Store / Play Billing / RuStore calls are pending.
type ReceiptValidator interface {
	ValidateReceipt(ctx context.Context, receipt string) (*ReceiptInfo, error)
	RestoreHistory(ctx context.Context, deviceID string) ([]ReceiptInfo, error)
}

// NewValidatorRegistry returns one validator per supported platform.
func NewValidatorRegistry(logger *zap.Logger) map[string]ReceiptValidator {
	return map[string]ReceiptValidator{
		models.PlatformIOS:            &appleValidator{logger: logger},
		models.PlatformAndroidGPlay:   &googlePlayValidator{logger: logger},
		models.PlatformAndroidRuStore: &ruStoreValidator{logger: logger},
	}
}

func stubTransactionID() string {
	return fmt.Sprintf("txn_%d", time.Now().UnixMilli())
}

func receiptPreview(receipt string) string {
	if len(receipt) > 50 {
		return receipt[:50] + "..."
	}
	return receipt
}

type appleValidator struct {
	logger *zap.Logger
}

// ValidateReceipt accepts the receipt without contacting the App Store.
// TODO: verify against the App Store server API once credentials exist.
func (v *appleValidator) ValidateReceipt(ctx context.Context, receipt string) (*ReceiptInfo, error) {
	if receipt == "" {
		return nil, models.ErrInvalidReceipt
	}
	v.logger.Info("Validating Apple receipt", zap.String("receipt", receiptPreview(receipt)))
	return &ReceiptInfo{TransactionID: stubTransactionID()}, nil
}

func (v *appleValidator) RestoreHistory(ctx context.Context, deviceID string) ([]ReceiptInfo, error) {
	return nil, nil
}

type googlePlayValidator struct {
	logger *zap.Logger
}

func (v *googlePlayValidator) ValidateReceipt(ctx context.Context, receipt string) (*ReceiptInfo, error) {
	if receipt == "" {
		return nil, models.ErrInvalidReceipt
	}
	v.logger.Info("Validating Google Play receipt", zap.String("receipt", receiptPreview(receipt)))
	return &ReceiptInfo{TransactionID: stubTransactionID()}, nil
}

func (v *googlePlayValidator) RestoreHistory(ctx context.Context, deviceID string) ([]ReceiptInfo, error) {
	return nil, nil
}

type ruStoreValidator struct {
	logger *zap.Logger
}

func (v *ruStoreValidator) ValidateReceipt(ctx context.Context, receipt string) (*ReceiptInfo, error) {
	if receipt == "" {
		return nil, models.ErrInvalidReceipt
	}
	v.logger.Info("Validating RuStore receipt", zap.String("receipt", receiptPreview(receipt)))
	return &ReceiptInfo{TransactionID: stubTransactionID()}, nil
}

func (v *ruStoreValidator) RestoreHistory(ctx context.Context, deviceID string) ([]ReceiptInfo, error) {
	return nil, nil
}
