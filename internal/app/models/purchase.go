package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase records full access to a tour for one user. At most one row ever
// exists per (UserID, TourID) pair. A nil ExpiresAt means the purchase is
// valid indefinitely.
type Purchase struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	TourID        uuid.UUID  `json:"tourId"`
	Platform      string     `json:"platform"`
	TransactionID *string    `json:"transactionId,omitempty"`
	ReceiptData   *string    `json:"-"`
	PurchasedAt   time.Time  `json:"purchasedAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

// IsValid reports whether the purchase still grants access at the given
// instant. Expiry is observed lazily at read time; nothing sweeps expired
// rows.
func (p Purchase) IsValid(now time.Time) bool {
	if p.ExpiresAt == nil {
		return true
	}
	return p.ExpiresAt.After(now)
}

// Access is the computed entitlement for a user/tour pair: either full
// access, or the freemium preview made of the POIs flagged free.
type Access struct {
	HasFullAccess bool  `json:"hasFullAccess"`
	VisiblePOIs   []POI `json:"visiblePois"`
}

// UserAccess is the compact access summary attached to tour detail responses.
type UserAccess struct {
	HasPurchased    bool `json:"hasPurchased"`
	FreeAccessCount int  `json:"freeAccessCount"`
}

// PurchaseRequest is the payload for POST /payments/purchase.
type PurchaseRequest struct {
	TourID   uuid.UUID `json:"tourId" validate:"required"`
	DeviceID string    `json:"deviceId" validate:"required"`
	Platform string    `json:"platform" validate:"required,oneof=ios android_gplay android_rustore"`
	Receipt  string    `json:"receipt" validate:"required"`
}

// RestoreRequest is the payload for POST /payments/restore.
type RestoreRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android_gplay android_rustore"`
}

// PurchaseResult is returned after a successful purchase.
type PurchaseResult struct {
	PurchaseID    uuid.UUID  `json:"purchaseId"`
	TransactionID *string    `json:"transactionId,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

// PaymentStatus reports the state of a recorded transaction.
type PaymentStatus struct {
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	TourID        uuid.UUID `json:"tourId"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}
