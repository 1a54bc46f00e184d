package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Server.Port)
	assert.Equal(t, "csv", cfg.Artifacts.CatalogSource)
	assert.Equal(t, "./games.csv", cfg.Artifacts.GamesPath)
	assert.Equal(t, 0.7, cfg.Recommendation.DefaultAlpha)
	assert.Equal(t, 5, cfg.Recommendation.DefaultTopN)
	assert.Equal(t, DefaultCollaborativeConfig(), cfg.Recommendation.Collaborative)
	assert.Equal(t, 2*time.Second, cfg.Redis.Timeout)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, []string{"*"}, cfg.Security.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("RECOMMENDATION_DEFAULT_ALPHA", "0.5")
	t.Setenv("RECOMMENDATION_COLLABORATIVE_BATCH_SIZE", "256")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 0.5, cfg.Recommendation.DefaultAlpha)
	assert.Equal(t, 256, cfg.Recommendation.Collaborative.BatchSize)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("DATA_PATH", "/data/games.csv")
	t.Setenv("CONTENT_MODEL_PATH", "/models/similarity.json")
	t.Setenv("COLLAB_DATA_PATH", "/models/collab.json")
	t.Setenv("COLLAB_MODEL_PATH", "/models/model.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/data/games.csv", cfg.Artifacts.GamesPath)
	assert.Equal(t, "/models/similarity.json", cfg.Artifacts.SimilarityPath)
	assert.Equal(t, "/models/collab.json", cfg.Artifacts.CollaborativePath)
	assert.Equal(t, "/models/model.json", cfg.Artifacts.ModelPath)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
