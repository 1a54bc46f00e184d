package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/chessrecs/internal/catalog"
	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/ml"
	"github.com/temcen/chessrecs/pkg/models"
)

// ErrNotReady is returned until artifacts have been installed.
var ErrNotReady = errors.New("recommendation models are not loaded")

// RecommendationContext is a validated prediction request.
type RecommendationContext struct {
	UserRating       int
	FavoriteOpenings []string
	Alpha            float64
	TopN             int
}

// Resources is everything the orchestrator needs to serve requests. It is
// installed as a unit once loading has finished.
type Resources struct {
	Catalog       *catalog.Catalog
	Similarity    *ml.SimilarityMatrix
	Collaborative *ml.CollaborativeData
	Model         Predictor
	Board         BoardConverter
	// Cache defaults to a process-local cache when nil.
	Cache PredictionCache
}

type engine struct {
	catalog       *catalog.Catalog
	content       *ContentScorer
	collaborative *CollaborativeScorer
	blender       *HybridBlender
	assembler     *ResultAssembler
}

// RecommendationOrchestrator runs both scorers for a request, blends their
// output and attaches catalog metadata.
type RecommendationOrchestrator struct {
	config  config.RecommendationConfig
	metrics *MetricsCollector
	logger  *logrus.Logger

	engine atomic.Pointer[engine]
}

func NewRecommendationOrchestrator(
	cfg config.RecommendationConfig,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	metrics.SetModelReady(false)
	return &RecommendationOrchestrator{
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Install builds the scorers from loaded resources and marks the
// orchestrator ready. Requests in flight keep the engine they started with.
func (o *RecommendationOrchestrator) Install(res Resources) {
	cache := res.Cache
	if cache == nil {
		cache = NewMemoryPredictionCache()
	}

	e := &engine{
		catalog:       res.Catalog,
		content:       NewContentScorer(res.Similarity, o.logger),
		collaborative: NewCollaborativeScorer(res.Collaborative, res.Model, cache, o.config.Collaborative, o.metrics, o.logger),
		blender:       NewHybridBlender(),
		assembler:     NewResultAssembler(res.Catalog, res.Board, o.logger),
	}
	o.engine.Store(e)
	o.metrics.SetModelReady(true)

	o.logger.WithFields(logrus.Fields{
		"openings":   res.Catalog.Len(),
		"similarity": res.Similarity.Len(),
		"complexity": e.collaborative.Complexity().Len(),
	}).Info("Recommendation engine ready")
}

func (o *RecommendationOrchestrator) Ready() bool {
	return o.engine.Load() != nil
}

// Openings lists every opening in the catalog.
func (o *RecommendationOrchestrator) Openings() ([]string, error) {
	e := o.engine.Load()
	if e == nil {
		return nil, ErrNotReady
	}
	return e.catalog.Names(), nil
}

// GenerateRecommendations returns up to TopN openings ranked by hybrid score,
// never including the user's favorites.
func (o *RecommendationOrchestrator) GenerateRecommendations(
	ctx context.Context,
	reqCtx *RecommendationContext,
) ([]models.OpeningRecommendation, error) {
	startTime := time.Now()

	e := o.engine.Load()
	if e == nil {
		o.metrics.RecordPrediction(OutcomeNotReady, 0)
		return nil, ErrNotReady
	}

	favorites := make([]string, len(reqCtx.FavoriteOpenings))
	for i, name := range reqCtx.FavoriteOpenings {
		favorites[i] = catalog.NormalizeName(name)
	}

	topN := reqCtx.TopN
	if topN <= 0 {
		topN = o.config.DefaultTopN
	}

	var content, collaborative Signal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content = e.content.Score(favorites)
		return nil
	})
	g.Go(func() error {
		var err error
		collaborative, err = e.collaborative.Score(gctx, reqCtx.UserRating)
		return err
	})
	if err := g.Wait(); err != nil {
		o.metrics.RecordPrediction(OutcomeError, 0)
		o.logger.WithError(err).WithField("user_rating", reqCtx.UserRating).Error("Failed to score openings")
		return nil, err
	}

	blended := e.blender.Blend(content, collaborative, reqCtx.Alpha, favorites, topN)
	results := e.assembler.Assemble(blended)

	outcome := OutcomeSuccess
	if len(results) == 0 {
		outcome = OutcomeEmpty
	}
	o.metrics.RecordPrediction(outcome, time.Since(startTime))

	o.logger.WithFields(logrus.Fields{
		"user_rating":   reqCtx.UserRating,
		"favorites":     len(favorites),
		"alpha":         reqCtx.Alpha,
		"content":       content.Present(),
		"collaborative": collaborative.Present(),
		"results":       len(results),
		"latency":       time.Since(startTime),
	}).Debug("Recommendations generated")

	return results, nil
}
