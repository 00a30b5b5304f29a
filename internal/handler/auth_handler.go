package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

type pairingService interface {
	PairDevice(ctx context.Context, req models.PairDeviceRequest) (*models.PairDeviceResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service pairingService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc pairingService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Pair godoc
// @Summary Pair a device
// @Description Exchange the pairing secret for a device token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PairDeviceRequest true "Pairing payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/pair [post]
func (h *AuthHandler) Pair(c *gin.Context) {
	var req models.PairDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pairing payload"))
		return
	}

	res, err := h.service.PairDevice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
