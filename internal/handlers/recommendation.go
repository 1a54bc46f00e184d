package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/services"
	"github.com/temcen/chessrecs/pkg/models"
)

type RecommendationHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	config       config.RecommendationConfig
	validator    *validator.Validate
	logger       *logrus.Logger
}

func NewRecommendationHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	cfg config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		orchestrator: orchestrator,
		config:       cfg,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Predict ranks openings for a player. The response body is a bare JSON
// array of recommendations.
func (h *RecommendationHandler) Predict(c *gin.Context) {
	var request models.RecommendationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.ErrorBody{
			Code:    "INVALID_REQUEST_BODY",
			Message: "Invalid request body format",
			Details: err.Error(),
		}})
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		h.logger.WithError(err).Debug("Validation failed for recommendation request")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.ErrorBody{
			Code:    "VALIDATION_FAILED",
			Message: "Request validation failed",
			Details: err.Error(),
		}})
		return
	}

	reqCtx := &services.RecommendationContext{
		UserRating:       request.UserRating,
		FavoriteOpenings: make([]string, len(request.FavoriteOpenings)),
		Alpha:            h.config.DefaultAlpha,
		TopN:             h.config.DefaultTopN,
	}
	for i, name := range request.FavoriteOpenings {
		reqCtx.FavoriteOpenings[i] = strings.TrimSpace(name)
	}
	if request.Alpha != nil {
		reqCtx.Alpha = *request.Alpha
	}
	if request.TopN != nil {
		reqCtx.TopN = min(*request.TopN, h.config.MaxTopN)
	}

	results, err := h.orchestrator.GenerateRecommendations(c.Request.Context(), reqCtx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: models.ErrorBody{
			Code:    "MODEL_NOT_READY",
			Message: "Recommendation models are not loaded yet",
		}})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.ErrorBody{
			Code:    "PREDICTION_FAILED",
			Message: "Failed to generate recommendations",
			Details: err.Error(),
		}})
	}
}
