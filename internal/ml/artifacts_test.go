package ml

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSimilarity = `{
  "opening_names": ["Sicilian Defense", "French Defense", "Italian Game"],
  "matrix": [
    [1.0, 0.6, 0.2],
    [0.6, 1.0, 0.4],
    [0.2, 0.4, 1.0]
  ]
}`

const testCollaborative = `{
  "players": [
    {"player_id": "alice", "rating": 1500},
    {"player_id": "bob", "rating": 1800},
    {"player_id": "alice", "rating": 9999}
  ],
  "player_openings": [
    {"player_id": "alice", "opening_name": "Sicilian Defense", "count": 3},
    {"player_id": "bob", "opening_name": "Italian Game", "count": 1}
  ],
  "player_classes": ["alice", "bob"],
  "opening_classes": ["Sicilian Defense", "French Defense", "Italian Game"]
}`

const testModel = `{
  "dimensions": 2,
  "player_embeddings": [[1, 0], [0, 1]],
  "player_bias": [0, 0.5],
  "opening_embeddings": [[2, 0], [0, 1], [0, 0]],
  "opening_bias": [0, 0, -1]
}`

func newValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	sv, err := NewSchemaValidator()
	require.NoError(t, err)
	return sv
}

func TestSchemaValidator(t *testing.T) {
	sv := newValidator(t)

	t.Run("valid documents", func(t *testing.T) {
		assert.NoError(t, sv.Validate(SchemaSimilarity, []byte(testSimilarity)))
		assert.NoError(t, sv.Validate(SchemaCollaborative, []byte(testCollaborative)))
		assert.NoError(t, sv.Validate(SchemaEmbeddingModel, []byte(testModel)))
	})

	t.Run("missing required field", func(t *testing.T) {
		err := sv.Validate(SchemaCollaborative, []byte(`{"players": [], "player_classes": [], "opening_classes": []}`))
		require.Error(t, err)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, SchemaCollaborative, schemaErr.Schema)
		assert.Contains(t, err.Error(), "player_openings")
	})

	t.Run("unknown schema", func(t *testing.T) {
		err := sv.Validate("nope", []byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		err := sv.Validate(SchemaSimilarity, []byte(`{"opening_names": [`))
		assert.Error(t, err)
	})
}

func TestParseSimilarity(t *testing.T) {
	sv := newValidator(t)

	m, err := ParseSimilarity(sv, []byte(testSimilarity))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Has("French Defense"))
	assert.False(t, m.Has("Ruy Lopez"))

	t.Run("column mean over favorites", func(t *testing.T) {
		means, ok := m.ColumnMean([]string{"Sicilian Defense", "Italian Game", "Ruy Lopez"})
		require.True(t, ok)
		assert.InDeltaSlice(t, []float64{0.6, 0.5, 0.6}, means, 1e-9)
	})

	t.Run("no known favorites", func(t *testing.T) {
		_, ok := m.ColumnMean([]string{"Ruy Lopez"})
		assert.False(t, ok)
	})

	t.Run("non-square matrix", func(t *testing.T) {
		_, err := ParseSimilarity(sv, []byte(`{"opening_names": ["a", "b"], "matrix": [[1, 0]]}`))
		assert.Error(t, err)
	})
}

func TestParseCollaborative(t *testing.T) {
	sv := newValidator(t)

	data, err := ParseCollaborative(sv, []byte(testCollaborative))
	require.NoError(t, err)

	require.Len(t, data.Players, 2)
	assert.Equal(t, 1500.0, data.Players[0].Rating)
	assert.Len(t, data.Affinities, 2)

	idx, ok := data.PlayerEncoder.Transform("bob")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = data.PlayerEncoder.Transform("carol")
	assert.False(t, ok)

	assert.Equal(t, []string{"Sicilian Defense", "French Defense", "Italian Game"}, data.OpeningEncoder.Classes())
}

func TestNewEncoder_Duplicate(t *testing.T) {
	_, err := NewEncoder([]string{"a", "b", "a"})
	assert.Error(t, err)
}

func TestEmbeddingModel_Predict(t *testing.T) {
	sv := newValidator(t)

	model, err := ParseEmbeddingModel(sv, []byte(testModel))
	require.NoError(t, err)
	assert.Equal(t, 2, model.Players())
	assert.Equal(t, 3, model.Openings())

	t.Run("sigmoid of dot plus biases", func(t *testing.T) {
		scores, err := model.Predict(context.Background(), []int{0, 1, 1}, []int{0, 1, 2})
		require.NoError(t, err)

		expected := []float64{
			1 / (1 + math.Exp(-2.0)),
			1 / (1 + math.Exp(-1.5)),
			1 / (1 + math.Exp(0.5)),
		}
		assert.InDeltaSlice(t, expected, scores, 1e-12)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := model.Predict(context.Background(), []int{5}, []int{0})
		assert.Error(t, err)
	})

	t.Run("mismatched batch", func(t *testing.T) {
		_, err := model.Predict(context.Background(), []int{0, 1}, []int{0})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := model.Predict(ctx, []int{0}, []int{0})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("wrong row width", func(t *testing.T) {
		_, err := NewEmbeddingModel(2, [][]float64{{1}}, []float64{0}, [][]float64{{1, 1}}, []float64{0})
		assert.Error(t, err)
	})
}

func writeArtifacts(t *testing.T, similarity, collaborative, model string) ArtifactPaths {
	t.Helper()
	dir := t.TempDir()
	paths := ArtifactPaths{
		Similarity:    filepath.Join(dir, "similarity.json"),
		Collaborative: filepath.Join(dir, "collaborative.json"),
		Model:         filepath.Join(dir, "model.json"),
	}
	require.NoError(t, os.WriteFile(paths.Similarity, []byte(similarity), 0o600))
	require.NoError(t, os.WriteFile(paths.Collaborative, []byte(collaborative), 0o600))
	require.NoError(t, os.WriteFile(paths.Model, []byte(model), 0o600))
	return paths
}

func TestLoadArtifacts(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	t.Run("loads and fingerprints", func(t *testing.T) {
		paths := writeArtifacts(t, testSimilarity, testCollaborative, testModel)

		artifacts, err := LoadArtifacts(paths, logger)
		require.NoError(t, err)
		assert.NotNil(t, artifacts.Similarity)
		assert.NotNil(t, artifacts.Collaborative)
		assert.NotNil(t, artifacts.Model)
		assert.Len(t, artifacts.Fingerprint, 16)
		assert.Equal(t, Fingerprint([]byte(testCollaborative), []byte(testModel)), artifacts.Fingerprint)
	})

	t.Run("missing file", func(t *testing.T) {
		paths := writeArtifacts(t, testSimilarity, testCollaborative, testModel)
		paths.Model = filepath.Join(t.TempDir(), "absent.json")

		_, err := LoadArtifacts(paths, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding model")
	})

	t.Run("encoder larger than model", func(t *testing.T) {
		smallModel := `{
		  "dimensions": 1,
		  "player_embeddings": [[1]],
		  "player_bias": [0],
		  "opening_embeddings": [[1], [1], [1]],
		  "opening_bias": [0, 0, 0]
		}`
		paths := writeArtifacts(t, testSimilarity, testCollaborative, smallModel)

		_, err := LoadArtifacts(paths, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "player encoder")
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("one"), []byte("two"))
	b := Fingerprint([]byte("one"), []byte("two"))
	c := Fingerprint([]byte("one"), []byte("three"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
