package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/services"
)

type HealthHandler struct {
	logger        *logrus.Logger
	healthService services.HealthServiceInterface
}

func NewHealthHandler(logger *logrus.Logger, healthService services.HealthServiceInterface) *HealthHandler {
	return &HealthHandler{
		logger:        logger,
		healthService: healthService,
	}
}

// Check always answers 200 so that liveness probes pass while models load.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthService.CheckHealth(c.Request.Context()))
}

// Ready answers 503 until the models are installed.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := h.healthService.CheckHealth(c.Request.Context())
	if !status.ModelReady {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
