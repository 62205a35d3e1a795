package tour

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/domain/purchase"
	"github.com/tourika/audiotour/internal/app/models"
)

// Handler serves the tour catalog endpoints. Reads are public, writes sit
// behind the admin middleware.
type Handler struct {
	service     Service
	entitlement purchase.Service
	respond     *common.Responder
	logger      *zap.Logger
}

func NewHandler(service Service, entitlement purchase.Service, respond *common.Responder, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		entitlement: entitlement,
		respond:     respond,
		logger:      logger,
	}
}

// callerDeviceID reads the optional device identity, sent either as a
// deviceId query parameter or an X-Device-ID header.
func callerDeviceID(c *gin.Context) string {
	if id := c.Query("deviceId"); id != "" {
		return id
	}
	return c.GetHeader("X-Device-ID")
}

func parseIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, name)
	}
	return &v, nil
}

// List handles GET /api/tours.
func (h *Handler) List(c *gin.Context) {
	page, limit := common.Pagination(c)

	filter := models.TourFilter{
		Search:     c.Query("search"),
		Attributes: c.QueryArray("attributes"),
	}

	minPrice, err := parseIntQuery(c, "minPrice")
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	maxPrice, err := parseIntQuery(c, "maxPrice")
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	filter.MinPrice = minPrice
	filter.MaxPrice = maxPrice

	tours, total, err := h.service.ListTours(c.Request.Context(), filter, page, limit)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, models.NewListPayload(tours, total, page, limit))
}

// Get handles GET /api/tours/:id. When a deviceId query parameter is
// present the POI list is trimmed to what that user may see and the access
// summary reflects their purchases; without it the full tour is returned
// with an anonymous summary.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: invalid tour id", models.ErrValidation))
		return
	}

	t, err := h.service.GetTour(c.Request.Context(), id)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	freeCount := 0
	for _, p := range t.POIs {
		if p.IsFree {
			freeCount++
		}
	}
	userAccess := models.UserAccess{HasPurchased: false, FreeAccessCount: freeCount}

	if deviceID := callerDeviceID(c); deviceID != "" {
		access, err := h.entitlement.AccessForDevice(c.Request.Context(), deviceID, t)
		if err != nil {
			h.respond.Error(c, err)
			return
		}
		userAccess.HasPurchased = access.HasFullAccess
		t.POIs = access.VisiblePOIs
	}

	h.respond.Data(c, http.StatusOK, gin.H{
		"tour":       t,
		"userAccess": userAccess,
	})
}

// Create handles POST /api/tours.
func (h *Handler) Create(c *gin.Context) {
	var req models.CreateTourRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	t, err := h.service.CreateTour(c.Request.Context(), req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusCreated, t, "Tour created successfully")
}

// Update handles PUT /api/tours/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: invalid tour id", models.ErrValidation))
		return
	}

	var req models.UpdateTourRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	t, err := h.service.UpdateTour(c.Request.Context(), id, req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusOK, t, "Tour updated successfully")
}

// Delete handles DELETE /api/tours/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: invalid tour id", models.ErrValidation))
		return
	}

	if err := h.service.DeleteTour(c.Request.Context(), id); err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Message(c, http.StatusOK, "Tour deleted successfully")
}
