package services

import (
	"context"

	"github.com/temcen/chessrecs/pkg/models"
)

// RecommendationOrchestratorInterface defines the interface for recommendation orchestration
type RecommendationOrchestratorInterface interface {
	GenerateRecommendations(ctx context.Context, reqCtx *RecommendationContext) ([]models.OpeningRecommendation, error)
	Openings() ([]string, error)
	Ready() bool
}

// HealthServiceInterface defines the interface for health reporting
type HealthServiceInterface interface {
	CheckHealth(ctx context.Context) *models.HealthResponse
}
