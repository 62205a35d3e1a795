package poi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/domain/purchase"
	"github.com/tourika/audiotour/internal/app/models"
)

// Handler serves the POI management endpoints. All of them sit behind the
// admin middleware except the per-tour listing.
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

func tourIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid tour id", models.ErrValidation)
	}
	return id, nil
}

// ListByTour handles GET /api/tours/:id/pois.
func (h *Handler) ListByTour(c *gin.Context) {
	tourID, err := tourIDParam(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	pois, err := h.service.ListByTour(c.Request.Context(), tourID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	if deviceID := callerDeviceID(c); deviceID != "" {
		access, err := h.entitlement.AccessForDevice(c.Request.Context(), deviceID, &models.Tour{ID: tourID, POIs: pois})
		if err != nil {
			h.respond.Error(c, err)
			return
		}
		pois = access.VisiblePOIs
	}

	h.respond.Data(c, http.StatusOK, pois)
}

// Create handles POST /api/tours/:id/pois.
func (h *Handler) Create(c *gin.Context) {
	tourID, err := tourIDParam(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var req models.CreatePOIRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	p, err := h.service.CreatePOI(c.Request.Context(), tourID, req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusCreated, p, "POI created successfully")
}

// Update handles PUT /api/pois/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: invalid POI id", models.ErrValidation))
		return
	}

	var req models.UpdatePOIRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	p, err := h.service.UpdatePOI(c.Request.Context(), id, req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusOK, p, "POI updated successfully")
}

// Delete handles DELETE /api/pois/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: invalid POI id", models.ErrValidation))
		return
	}

	if err := h.service.DeletePOI(c.Request.Context(), id); err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Message(c, http.StatusOK, "POI deleted successfully")
}

// Reorder handles PUT /api/tours/:id/pois/reorder.
func (h *Handler) Reorder(c *gin.Context) {
	tourID, err := tourIDParam(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var req models.ReorderPOIsRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	if err := h.service.ReorderPOIs(c.Request.Context(), tourID, req.Orders); err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Message(c, http.StatusOK, "POIs reordered successfully")
}

// UploadRoute handles POST /api/tours/:id/route. The route file arrives as
// multipart form data under the "file" field.
func (h *Handler) UploadRoute(c *gin.Context) {
	tourID, err := tourIDParam(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respond.Error(c, fmt.Errorf("%w: no file uploaded", models.ErrInvalidFile))
		return
	}
	if fileHeader.Size > maxRouteFileSize {
		h.respond.Error(c, fmt.Errorf("%w: file too large, maximum size is 10MB", models.ErrInvalidFile))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respond.Error(c, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxRouteFileSize+1))
	if err != nil {
		h.respond.Error(c, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	created, err := h.service.IngestRoute(c.Request.Context(), tourID, fileHeader.Filename, data)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, gin.H{
		"message":       "Route uploaded successfully",
		"pointsCreated": len(created),
		"points":        created,
	})
}
