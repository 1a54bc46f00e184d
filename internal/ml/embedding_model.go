package ml

import (
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EmbeddingModel scores (player, opening) pairs as
// sigmoid(<player, opening> + playerBias + openingBias).
// Weights are read-only after construction, so Predict is reentrant.
type EmbeddingModel struct {
	dimensions  int
	players     *mat.Dense
	playerBias  []float64
	openings    *mat.Dense
	openingBias []float64
}

type embeddingModelDocument struct {
	Dimensions        int         `json:"dimensions"`
	PlayerEmbeddings  [][]float64 `json:"player_embeddings"`
	PlayerBias        []float64   `json:"player_bias"`
	OpeningEmbeddings [][]float64 `json:"opening_embeddings"`
	OpeningBias       []float64   `json:"opening_bias"`
}

func NewEmbeddingModel(dimensions int, playerEmb [][]float64, playerBias []float64, openingEmb [][]float64, openingBias []float64) (*EmbeddingModel, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}
	if len(playerEmb) != len(playerBias) {
		return nil, fmt.Errorf("player embeddings (%d) and biases (%d) differ in length", len(playerEmb), len(playerBias))
	}
	if len(openingEmb) != len(openingBias) {
		return nil, fmt.Errorf("opening embeddings (%d) and biases (%d) differ in length", len(openingEmb), len(openingBias))
	}
	if len(playerEmb) == 0 || len(openingEmb) == 0 {
		return nil, fmt.Errorf("embedding model has no players or no openings")
	}

	players, err := denseRows(playerEmb, dimensions)
	if err != nil {
		return nil, fmt.Errorf("player embeddings: %w", err)
	}
	openings, err := denseRows(openingEmb, dimensions)
	if err != nil {
		return nil, fmt.Errorf("opening embeddings: %w", err)
	}

	return &EmbeddingModel{
		dimensions:  dimensions,
		players:     players,
		playerBias:  append([]float64(nil), playerBias...),
		openings:    openings,
		openingBias: append([]float64(nil), openingBias...),
	}, nil
}

func denseRows(rows [][]float64, dims int) (*mat.Dense, error) {
	backing := make([]float64, 0, len(rows)*dims)
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), dims)
		}
		backing = append(backing, row...)
	}
	return mat.NewDense(len(rows), dims, backing), nil
}

// ParseEmbeddingModel validates and decodes exported model weights.
func ParseEmbeddingModel(sv *SchemaValidator, raw []byte) (*EmbeddingModel, error) {
	if err := sv.Validate(SchemaEmbeddingModel, raw); err != nil {
		return nil, err
	}

	var doc embeddingModelDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode embedding model: %w", err)
	}

	return NewEmbeddingModel(doc.Dimensions, doc.PlayerEmbeddings, doc.PlayerBias, doc.OpeningEmbeddings, doc.OpeningBias)
}

func (m *EmbeddingModel) Players() int {
	r, _ := m.players.Dims()
	return r
}

func (m *EmbeddingModel) Openings() int {
	r, _ := m.openings.Dims()
	return r
}

func (m *EmbeddingModel) Dimensions() int {
	return m.dimensions
}

// Predict returns one affinity per (players[i], openings[i]) pair.
func (m *EmbeddingModel) Predict(ctx context.Context, players, openings []int) ([]float64, error) {
	if len(players) != len(openings) {
		return nil, fmt.Errorf("batch mismatch: %d players, %d openings", len(players), len(openings))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nPlayers, nOpenings := m.Players(), m.Openings()
	out := make([]float64, len(players))
	for i := range players {
		p, o := players[i], openings[i]
		if p < 0 || p >= nPlayers {
			return nil, fmt.Errorf("player index %d out of range [0,%d)", p, nPlayers)
		}
		if o < 0 || o >= nOpenings {
			return nil, fmt.Errorf("opening index %d out of range [0,%d)", o, nOpenings)
		}
		logit := floats.Dot(m.players.RawRowView(p), m.openings.RawRowView(o)) + m.playerBias[p] + m.openingBias[o]
		out[i] = sigmoid(logit)
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
