package purchase

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/models"
)

// Handler serves the payment endpoints.
type Handler struct {
	service Service
	respond *common.Responder
	logger  *zap.Logger
}

func NewHandler(service Service, respond *common.Responder, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		respond: respond,
		logger:  logger,
	}
}

// Purchase handles POST /api/payments/purchase.
func (h *Handler) Purchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	result, err := h.service.PurchaseTour(c.Request.Context(), req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusOK, result, "Purchase processed successfully")
}

// Status handles GET /api/payments/status/:transactionId.
func (h *Handler) Status(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		h.respond.Error(c, fmt.Errorf("%w: transaction id is required", models.ErrValidation))
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), transactionID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, status)
}

// Restore handles POST /api/payments/restore.
func (h *Handler) Restore(c *gin.Context) {
	var req models.RestoreRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	purchases, err := h.service.RestorePurchases(c.Request.Context(), req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.DataWithMessage(c, http.StatusOK, purchases, "Purchases restored successfully")
}
