package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/services"
	"github.com/temcen/chessrecs/pkg/models"
)

type OpeningsHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	logger       *logrus.Logger
}

func NewOpeningsHandler(orchestrator services.RecommendationOrchestratorInterface, logger *logrus.Logger) *OpeningsHandler {
	return &OpeningsHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// List returns every catalog opening in lexical order.
func (h *OpeningsHandler) List(c *gin.Context) {
	openings, err := h.orchestrator.Openings()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OpeningsResponse{
		Openings: openings,
		Count:    len(openings),
	})
}
