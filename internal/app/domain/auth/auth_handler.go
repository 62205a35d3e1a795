package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/common"
	"github.com/tourika/audiotour/internal/app/models"
)

// Handler serves the admin authentication endpoint.
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

// Login handles POST /api/users/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := common.BindJSON(c, &req); err != nil {
		h.respond.Error(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Data(c, http.StatusOK, resp)
}
