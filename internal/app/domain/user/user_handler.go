package user

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/domain/purchase"
	"github.com/tourika/audiotour/internal/app/models"
)

// Handler serves the device user endpoints.
type Handler struct {
	service   Service
	purchases purchase.Service
	respond   *common.Responder
	logger    *zap.Logger
}

func NewHandler(service Service, purchases purchase.Service, respond *common.Responder, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		purchases: purchases,
		respond:   respond,
		logger:    logger,
	}
}

// Register handles POST /api/users/register.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusCreated, u, "User registered successfully")
}

// userWithPurchases is the user detail payload: the identity plus
// everything the user owns.
type userWithPurchases struct {
	models.User
	Purchases []models.Purchase `json:"purchases"`
}

// Get handles GET /api/users/:deviceId.
func (h *Handler) Get(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		h.respond.Error(c, fmt.Errorf("%w: device id is required", models.ErrValidation))
		return
	}

	u, err := h.service.GetByDeviceID(c.Request.Context(), deviceID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	purchases, err := h.purchases.ListUserPurchases(c.Request.Context(), deviceID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, userWithPurchases{User: *u, Purchases: purchases})
}

// Purchases handles GET /api/users/:deviceId/purchases.
func (h *Handler) Purchases(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		h.respond.Error(c, fmt.Errorf("%w: device id is required", models.ErrValidation))
		return
	}

	purchases, err := h.purchases.ListUserPurchases(c.Request.Context(), deviceID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, purchases)
}
