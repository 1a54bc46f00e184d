package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/board"
	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/database"
)

type Services struct {
	Metrics        *MetricsCollector
	Recommendation *RecommendationOrchestrator
	Health         *HealthService
	Loader         *ResourceLoader
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, reg prometheus.Registerer) *Services {
	metrics := NewMetricsCollector(reg)
	orchestrator := NewRecommendationOrchestrator(cfg.Recommendation, metrics, logger)
	healthService := NewHealthService(orchestrator, db.Pingers(), reg, logger)

	loader := NewResourceLoader(cfg, db, board.NewConverter(), orchestrator, logger)

	return &Services{
		Metrics:        metrics,
		Recommendation: orchestrator,
		Health:         healthService,
		Loader:         loader,
	}
}
