package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Openings       *OpeningsHandler
	Recommendation *RecommendationHandler
}

func New(cfg *config.Config, logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Openings:       NewOpeningsHandler(services.Recommendation, logger),
		Recommendation: NewRecommendationHandler(services.Recommendation, cfg.Recommendation, logger),
	}
}
