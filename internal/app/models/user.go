package models

import (
	"time"

	"github.com/google/uuid"
)

// Platforms a device/purchase can belong to.
const (
	PlatformIOS            = "ios"
	PlatformAndroidGPlay   = "android_gplay"
	PlatformAndroidRuStore = "android_rustore"
)

// ValidPlatform reports whether p names a supported store platform.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformIOS, PlatformAndroidGPlay, PlatformAndroidRuStore:
		return true
	}
	return false
}

// User is an end-user identity, created on first contact from a device.
// Platform is updated in place if the device reports a different one.
type User struct {
	ID        uuid.UUID `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Platform  *string   `json:"platform,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminUser authenticates the admin panel against /users/admin/login.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterUserRequest registers (or refreshes) a device identity.
type RegisterUserRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android_gplay android_rustore"`
}

// AdminLoginRequest carries admin panel credentials.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse returns the signed token plus the admin identity.
type AdminLoginResponse struct {
	Token string    `json:"token"`
	User  AdminUser `json:"user"`
}
