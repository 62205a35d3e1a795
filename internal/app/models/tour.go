package models

import (
	"time"

	"github.com/google/uuid"
)

// Tour attributes a tour can be tagged with at authoring time.
const (
	TourAttributeNew     = "new"
	TourAttributePopular = "popular"
)

// Tour is a purchasable guided itinerary composed of ordered POIs.
type Tour struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	FullDescription     *string   `json:"fullDescription,omitempty"`
	BannerURL           *string   `json:"bannerUrl,omitempty"`
	AudioDescriptionURL *string   `json:"audioDescriptionUrl,omitempty"`
	DurationMinutes     *int      `json:"durationMinutes,omitempty"`
	DistanceMeters      *int      `json:"distanceMeters,omitempty"`
	PriceCents          int       `json:"priceCents"`
	Attributes          []string  `json:"attributes"`
	POIs                []POI     `json:"pois"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// POI is a single stop within a tour, with location and optional audio.
// OrderIndex defines presentation order within the tour; values need not be
// contiguous but the ordering is total and stable.
type POI struct {
	ID          uuid.UUID `json:"id"`
	TourID      uuid.UUID `json:"tourId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	IsFree      bool      `json:"isFree"`
	OrderIndex  int       `json:"orderIndex"`
	AudioURL    *string   `json:"audioUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTourRequest is the admin payload for creating a tour.
type CreateTourRequest struct {
	Title               string   `json:"title" binding:"required" validate:"required,max=255"`
	Description         string   `json:"description" validate:"required"`
	FullDescription     *string  `json:"fullDescription" validate:"omitempty"`
	BannerURL           *string  `json:"bannerUrl" validate:"omitempty,url"`
	AudioDescriptionURL *string  `json:"audioDescriptionUrl" validate:"omitempty,url"`
	DurationMinutes     *int     `json:"durationMinutes" validate:"omitempty,gt=0"`
	DistanceMeters      *int     `json:"distanceMeters" validate:"omitempty,gt=0"`
	PriceCents          int      `json:"priceCents" validate:"gte=0"`
	Attributes          []string `json:"attributes" validate:"omitempty,dive,oneof=new popular"`
}

// UpdateTourRequest carries partial updates; nil fields are left untouched.
type UpdateTourRequest struct {
	Title               *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description         *string  `json:"description" validate:"omitempty,min=1"`
	FullDescription     *string  `json:"fullDescription"`
	BannerURL           *string  `json:"bannerUrl" validate:"omitempty,url"`
	AudioDescriptionURL *string  `json:"audioDescriptionUrl" validate:"omitempty,url"`
	DurationMinutes     *int     `json:"durationMinutes" validate:"omitempty,gt=0"`
	DistanceMeters      *int     `json:"distanceMeters" validate:"omitempty,gt=0"`
	PriceCents          *int     `json:"priceCents" validate:"omitempty,gte=0"`
	Attributes          []string `json:"attributes" validate:"omitempty,dive,oneof=new popular"`
}

// TourFilter holds list filtering parameters. Price bounds are inclusive.
type TourFilter struct {
	Search     string
	Attributes []string
	MinPrice   *int
	MaxPrice   *int
}

// CreatePOIRequest is the admin payload for adding a POI to a tour.
type CreatePOIRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	IsFree      bool    `json:"isFree"`
	OrderIndex  *int    `json:"orderIndex" validate:"omitempty,gte=0"`
	AudioURL    *string `json:"audioUrl" validate:"omitempty,url"`
}

// UpdatePOIRequest carries partial POI updates.
type UpdatePOIRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsFree      *bool    `json:"isFree"`
	OrderIndex  *int     `json:"orderIndex" validate:"omitempty,gte=0"`
	AudioURL    *string  `json:"audioUrl" validate:"omitempty,url"`
}

// POIOrder pairs a POI id with its new order index for bulk reordering.
type POIOrder struct {
	ID         uuid.UUID `json:"id" validate:"required"`
	OrderIndex int       `json:"orderIndex" validate:"gte=0"`
}

// ReorderPOIsRequest is applied atomically: either every listed POI gets its
// new index or none do.
type ReorderPOIsRequest struct {
	Orders []POIOrder `json:"orders" validate:"required,min=1,dive"`
}
