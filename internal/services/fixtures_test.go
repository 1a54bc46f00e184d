package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/chessrecs/internal/board"
	"github.com/temcen/chessrecs/internal/catalog"
	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/ml"
)

var fixtureOpenings = []string{
	"Sicilian Defense",
	"French Defense",
	"Italian Game",
	"Queen's Gambit",
	"Caro-Kann Defense",
	"Ruy Lopez",
	"English Opening",
}

var fixtureSimilarity = [][]float64{
	{1.00, 0.70, 0.20, 0.10, 0.60, 0.25, 0.15},
	{0.70, 1.00, 0.15, 0.20, 0.80, 0.20, 0.10},
	{0.20, 0.15, 1.00, 0.30, 0.10, 0.85, 0.20},
	{0.10, 0.20, 0.30, 1.00, 0.25, 0.35, 0.65},
	{0.60, 0.80, 0.10, 0.25, 1.00, 0.15, 0.20},
	{0.25, 0.20, 0.85, 0.35, 0.15, 1.00, 0.30},
	{0.15, 0.10, 0.20, 0.65, 0.20, 0.30, 1.00},
}

var fixturePlayers = []ml.Player{
	{ID: "p1", Rating: 1200},
	{ID: "p2", Rating: 1350},
	{ID: "p3", Rating: 1450},
	{ID: "p4", Rating: 1500},
	{ID: "p5", Rating: 1550},
	{ID: "p6", Rating: 1650},
	{ID: "p7", Rating: 1900},
	{ID: "p8", Rating: 2200},
}

var fixtureAffinities = []ml.Affinity{
	{PlayerID: "p1", OpeningName: "Italian Game", Count: 5},
	{PlayerID: "p1", OpeningName: "French Defense", Count: 2},
	{PlayerID: "p2", OpeningName: "Italian Game", Count: 3},
	{PlayerID: "p2", OpeningName: "Sicilian Defense", Count: 1},
	{PlayerID: "p3", OpeningName: "Sicilian Defense", Count: 4},
	{PlayerID: "p3", OpeningName: "Caro-Kann Defense", Count: 2},
	{PlayerID: "p4", OpeningName: "Sicilian Defense", Count: 6},
	{PlayerID: "p4", OpeningName: "Ruy Lopez", Count: 1},
	{PlayerID: "p5", OpeningName: "French Defense", Count: 3},
	{PlayerID: "p5", OpeningName: "Queen's Gambit", Count: 2},
	{PlayerID: "p6", OpeningName: "Ruy Lopez", Count: 4},
	{PlayerID: "p7", OpeningName: "Queen's Gambit", Count: 5},
	{PlayerID: "p7", OpeningName: "English Opening", Count: 2},
	{PlayerID: "p8", OpeningName: "English Opening", Count: 7},
	{PlayerID: "p8", OpeningName: "Ruy Lopez", Count: 3},
}

var fixturePlayerClasses = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

func fixtureGames() []catalog.Game {
	return []catalog.Game{
		{ID: "g1", OpeningName: "Sicilian Defense", OpeningPly: 2, Moves: []string{"e4", "c5", "Nf3"}, Winner: "white"},
		{ID: "g2", OpeningName: "Sicilian Defense", OpeningPly: 2, Moves: []string{"e4", "c5", "Nc3"}, Winner: "black"},
		{ID: "g3", OpeningName: "French Defense", OpeningPly: 2, Moves: []string{"e4", "e6", "d4"}, Winner: "draw"},
		{ID: "g4", OpeningName: "Italian Game", OpeningPly: 5, Moves: []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5"}, Winner: "white"},
		{ID: "g5", OpeningName: "Queen's Gambit", OpeningPly: 3, Moves: []string{"d4", "d5", "c4", "e6"}, Winner: "white"},
		{ID: "g6", OpeningName: "Caro-Kann Defense", OpeningPly: 2, Moves: []string{"e4", "c6", "d4"}, Winner: "black"},
		{ID: "g7", OpeningName: "Ruy Lopez", OpeningPly: 5, Moves: []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6"}, Winner: "draw"},
		{ID: "g8", OpeningName: "English Opening", OpeningPly: 1, Moves: []string{"c4", "e5"}, Winner: "white"},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testCollaborativeConfig() config.CollaborativeConfig {
	return config.DefaultCollaborativeConfig()
}

func newFixtureSimilarity(t *testing.T) *ml.SimilarityMatrix {
	t.Helper()
	m, err := ml.NewSimilarityMatrix(fixtureOpenings, fixtureSimilarity)
	require.NoError(t, err)
	return m
}

func newFixtureCollaborative(t *testing.T) *ml.CollaborativeData {
	t.Helper()
	data, err := ml.NewCollaborativeData(fixturePlayers, fixtureAffinities, fixturePlayerClasses, fixtureOpenings)
	require.NoError(t, err)
	return data
}

func newFixtureModel(t *testing.T) *ml.EmbeddingModel {
	t.Helper()
	players := [][]float64{
		{0.9, 0.1}, {0.8, 0.3}, {0.4, 0.7}, {0.3, 0.9},
		{0.5, 0.5}, {0.2, 0.6}, {-0.3, 0.8}, {-0.6, 0.4},
	}
	openings := [][]float64{
		{0.2, 1.2}, {0.6, 0.4}, {1.1, 0.1}, {-0.5, 0.9},
		{0.3, 0.8}, {0.7, 0.5}, {-0.8, 0.6},
	}
	model, err := ml.NewEmbeddingModel(2,
		players, []float64{0, 0.1, 0, -0.1, 0.05, 0, 0.1, 0},
		openings, []float64{0.1, 0, 0.05, -0.05, 0, 0.1, -0.1},
	)
	require.NoError(t, err)
	return model
}

func newFixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(fixtureGames())
	require.NoError(t, err)
	return cat
}

func newFixtureResources(t *testing.T, model Predictor) Resources {
	t.Helper()
	return Resources{
		Catalog:       newFixtureCatalog(t),
		Similarity:    newFixtureSimilarity(t),
		Collaborative: newFixtureCollaborative(t),
		Model:         model,
		Board:         board.NewConverter(),
	}
}

func newReadyOrchestrator(t *testing.T, model Predictor) *RecommendationOrchestrator {
	t.Helper()
	cfg := config.RecommendationConfig{
		DefaultAlpha:  0.7,
		DefaultTopN:   5,
		MaxTopN:       20,
		Collaborative: testCollaborativeConfig(),
	}
	o := NewRecommendationOrchestrator(cfg, NewMetricsCollector(nil), testLogger())
	o.Install(newFixtureResources(t, model))
	return o
}

// countingPredictor records how often the model is invoked.
type countingPredictor struct {
	inner Predictor
	calls atomic.Int64
}

func (p *countingPredictor) Predict(ctx context.Context, players, openings []int) ([]float64, error) {
	p.calls.Add(1)
	return p.inner.Predict(ctx, players, openings)
}

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, players, openings []int) ([]float64, error) {
	args := m.Called(ctx, players, openings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}
