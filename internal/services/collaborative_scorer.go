package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/ml"
)

// ErrInference wraps any failure of the embedding model.
var ErrInference = errors.New("model inference failed")

// Predictor scores (player, opening) index pairs. Implementations must be
// safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, players, openings []int) ([]float64, error)
}

type neighbor struct {
	index  int
	weight float64
}

type bucketResult struct {
	dist     *ScoreTable
	fallback bool
}

// CollaborativeScorer predicts opening affinities from players of similar
// strength through the embedding model.
type CollaborativeScorer struct {
	data       *ml.CollaborativeData
	model      Predictor
	complexity *ComplexityScores
	popularity *ScoreTable
	cache      PredictionCache
	cfg        config.CollaborativeConfig
	metrics    *MetricsCollector
	logger     *logrus.Logger

	inflight singleflight.Group
}

func NewCollaborativeScorer(
	data *ml.CollaborativeData,
	model Predictor,
	cache PredictionCache,
	cfg config.CollaborativeConfig,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *CollaborativeScorer {
	return &CollaborativeScorer{
		data:       data,
		model:      model,
		complexity: EstimateComplexity(data),
		popularity: popularity(data),
		cache:      cache,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Bucket rounds a rating to the nearest bucket boundary, clamped to the
// configured rating range.
func Bucket(rating int, cfg config.CollaborativeConfig) int {
	size := float64(cfg.BucketSize)
	bucket := int(math.Round(float64(rating)/size) * size)
	if bucket < cfg.MinRating {
		return cfg.MinRating
	}
	if bucket > cfg.MaxRating {
		return cfg.MaxRating
	}
	return bucket
}

func (s *CollaborativeScorer) Complexity() *ComplexityScores {
	return s.complexity
}

// Score returns the top collaborative scores for a user of the given rating.
// The pre-adjustment distribution is cached per rating bucket; the complexity
// adjustment always uses the exact rating.
func (s *CollaborativeScorer) Score(ctx context.Context, userRating int) (Signal, error) {
	bucket := Bucket(userRating, s.cfg)

	dist, cached := s.cache.Get(ctx, bucket)
	s.metrics.RecordCacheLookup(cached)

	if cached {
		s.metrics.RecordCollaborativePath(PathCached)
		return s.finish(dist, userRating), nil
	}

	v, err, _ := s.inflight.Do(strconv.Itoa(bucket), func() (interface{}, error) {
		// Results are shared by every caller waiting on this bucket, so one
		// caller's cancellation must not fail the others.
		return s.computeBucket(context.WithoutCancel(ctx), bucket, float64(userRating))
	})
	if err != nil {
		return NoSignal(), err
	}

	result := v.(bucketResult)
	if result.fallback {
		s.metrics.RecordCollaborativePath(PathFallback)
	} else {
		s.metrics.RecordCollaborativePath(PathModel)
	}
	return s.finish(result.dist, userRating), nil
}

func (s *CollaborativeScorer) finish(dist *ScoreTable, userRating int) Signal {
	adjusted := s.complexity.Adjust(dist, float64(userRating), s.cfg.ComplexityInfluence, s.cfg.RatingScale)
	return SignalOf(adjusted.Sorted().Top(s.cfg.TopN))
}

func (s *CollaborativeScorer) computeBucket(ctx context.Context, bucket int, rating float64) (bucketResult, error) {
	// Another caller may have filled the bucket while we waited.
	if dist, ok := s.cache.Get(ctx, bucket); ok {
		return bucketResult{dist: dist}, nil
	}

	neighbors := s.selectNeighbors(rating)
	if len(neighbors) == 0 {
		s.logger.WithField("rating", rating).Debug("No known neighbors, using popularity fallback")
		return bucketResult{dist: s.popularity, fallback: true}, nil
	}

	dist, err := s.infer(ctx, neighbors)
	if err != nil {
		return bucketResult{}, err
	}

	s.cache.Put(ctx, bucket, dist)
	s.logger.WithFields(logrus.Fields{
		"bucket":    bucket,
		"neighbors": len(neighbors),
		"openings":  dist.Len(),
	}).Debug("Cached collaborative distribution")

	return bucketResult{dist: dist}, nil
}

// selectNeighbors widens the rating radius until enough players fall inside
// it, falling back to the closest players. Weights favor close ratings and
// are normalized over the players the model knows.
func (s *CollaborativeScorer) selectNeighbors(rating float64) []neighbor {
	players := s.data.Players
	if len(players) == 0 {
		return nil
	}

	diffs := make([]float64, len(players))
	for i, p := range players {
		diffs[i] = math.Abs(p.Rating - rating)
	}

	var selected []int
	for _, radius := range s.cfg.RatingRadii {
		selected = selected[:0]
		for i, d := range diffs {
			if d <= float64(radius) {
				selected = append(selected, i)
			}
		}
		if len(selected) >= s.cfg.MinNeighbors {
			break
		}
	}

	if len(selected) < s.cfg.MinNeighbors {
		order := make([]int, len(players))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return diffs[order[a]] < diffs[order[b]]
		})
		if len(order) > s.cfg.MinNeighbors {
			order = order[:s.cfg.MinNeighbors]
		}
		selected = order
	}

	neighbors := make([]neighbor, 0, len(selected))
	total := 0.0
	for _, i := range selected {
		index, ok := s.data.PlayerEncoder.Transform(players[i].ID)
		if !ok {
			continue
		}
		w := 1 / (diffs[i] + s.cfg.NeighborWeightShift)
		neighbors = append(neighbors, neighbor{index: index, weight: w})
		total += w
	}

	for i := range neighbors {
		neighbors[i].weight /= total
	}
	return neighbors
}

// infer scores every (neighbor, opening) pair in bounded batches, averages
// per opening by neighbor weight and turns the result into a
// temperature-scaled softmax distribution.
func (s *CollaborativeScorer) infer(ctx context.Context, neighbors []neighbor) (*ScoreTable, error) {
	openings := s.data.OpeningEncoder.Classes()
	numOpenings := len(openings)
	total := len(neighbors) * numOpenings

	predictions := make([]float64, 0, total)
	batch := s.cfg.BatchSize
	if batch <= 0 {
		batch = total
	}

	playerIdx := make([]int, 0, batch)
	openingIdx := make([]int, 0, batch)
	for start := 0; start < total; start += batch {
		end := min(start+batch, total)

		playerIdx = playerIdx[:0]
		openingIdx = openingIdx[:0]
		for k := start; k < end; k++ {
			playerIdx = append(playerIdx, neighbors[k/numOpenings].index)
			openingIdx = append(openingIdx, k%numOpenings)
		}

		started := time.Now()
		scores, err := s.model.Predict(ctx, playerIdx, openingIdx)
		s.metrics.ObserveInference(time.Since(started))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInference, err)
		}
		if len(scores) != end-start {
			return nil, fmt.Errorf("%w: expected %d scores, got %d", ErrInference, end-start, len(scores))
		}
		predictions = append(predictions, scores...)
	}

	avg := make([]float64, numOpenings)
	for n, nb := range neighbors {
		floats.AddScaled(avg, nb.weight, predictions[n*numOpenings:(n+1)*numOpenings])
	}

	return ScoreTableFrom(openings, softmax(avg, s.cfg.Temperature)), nil
}

// softmax computes exp(x/t) normalized to sum 1, shifted by the max for
// numerical stability.
func softmax(x []float64, temperature float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	copy(out, x)
	floats.Scale(1/temperature, out)
	floats.AddConst(-floats.Max(out), out)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// popularity counts how many players have each opening in their history.
func popularity(data *ml.CollaborativeData) *ScoreTable {
	table := NewScoreTable(data.OpeningEncoder.Len())
	for _, a := range data.Affinities {
		count, _ := table.Get(a.OpeningName)
		table.Set(a.OpeningName, count+1)
	}
	return table
}
