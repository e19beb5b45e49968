package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/internal/services"
)

// AuthHandler handles operator authentication endpoints
type AuthHandler struct {
	auth   *services.OperatorAuthService
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.OperatorAuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// Login authenticates the operator
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.OperatorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
