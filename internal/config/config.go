package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Artifacts      ArtifactConfig       `mapstructure:"artifacts"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ArtifactConfig points at the inputs loaded once at startup.
type ArtifactConfig struct {
	CatalogSource     string `mapstructure:"catalog_source"` // "csv" or "postgres"
	GamesPath         string `mapstructure:"games_path"`
	SimilarityPath    string `mapstructure:"similarity_path"`
	CollaborativePath string `mapstructure:"collaborative_path"`
	ModelPath         string `mapstructure:"model_path"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the shared prediction cache tier. An empty URL
// keeps the cache process-local.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

type RecommendationConfig struct {
	DefaultAlpha  float64             `mapstructure:"default_alpha"`
	DefaultTopN   int                 `mapstructure:"default_top_n"`
	MaxTopN       int                 `mapstructure:"max_top_n"`
	Collaborative CollaborativeConfig `mapstructure:"collaborative"`
}

type CollaborativeConfig struct {
	TopN                int     `mapstructure:"top_n"`
	MinNeighbors        int     `mapstructure:"min_neighbors"`
	RatingRadii         []int   `mapstructure:"rating_radii"`
	NeighborWeightShift float64 `mapstructure:"neighbor_weight_shift"`
	BucketSize          int     `mapstructure:"bucket_size"`
	MinRating           int     `mapstructure:"min_rating"`
	MaxRating           int     `mapstructure:"max_rating"`
	Temperature         float64 `mapstructure:"temperature"`
	ComplexityInfluence float64 `mapstructure:"complexity_influence"`
	RatingScale         float64 `mapstructure:"rating_scale"`
	BatchSize           int     `mapstructure:"batch_size"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindLegacyEnv keeps the flat variable names used by existing deployments.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":                   "PORT",
		"logging.level":                 "LOG_LEVEL",
		"artifacts.games_path":          "DATA_PATH",
		"artifacts.similarity_path":     "CONTENT_MODEL_PATH",
		"artifacts.collaborative_path":  "COLLAB_DATA_PATH",
		"artifacts.model_path":          "COLLAB_MODEL_PATH",
		"security.cors.allowed_origins": "CORS_ORIGINS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.mode", "development")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Artifact defaults
	v.SetDefault("artifacts.catalog_source", "csv")
	v.SetDefault("artifacts.games_path", "./games.csv")
	v.SetDefault("artifacts.similarity_path", "./models/content_similarity.json")
	v.SetDefault("artifacts.collaborative_path", "./models/collaborative_data.json")
	v.SetDefault("artifacts.model_path", "./models/collaborative_model.json")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", "2s")
	v.SetDefault("redis.key_prefix", "chessrecs:prediction")

	// Recommendation defaults
	v.SetDefault("recommendation.default_alpha", 0.7)
	v.SetDefault("recommendation.default_top_n", 5)
	v.SetDefault("recommendation.max_top_n", 20)
	v.SetDefault("recommendation.collaborative.top_n", 50)
	v.SetDefault("recommendation.collaborative.min_neighbors", 5)
	v.SetDefault("recommendation.collaborative.rating_radii", []int{50, 100, 200, 300, 400, 500, 750, 1000})
	v.SetDefault("recommendation.collaborative.neighbor_weight_shift", 10.0)
	v.SetDefault("recommendation.collaborative.bucket_size", 250)
	v.SetDefault("recommendation.collaborative.min_rating", 500)
	v.SetDefault("recommendation.collaborative.max_rating", 3000)
	v.SetDefault("recommendation.collaborative.temperature", 2.0)
	v.SetDefault("recommendation.collaborative.complexity_influence", 0.3)
	v.SetDefault("recommendation.collaborative.rating_scale", 3000.0)
	v.SetDefault("recommendation.collaborative.batch_size", 1024)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}

// DefaultCollaborativeConfig mirrors the defaults above for callers that build
// services without going through Load.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		TopN:                50,
		MinNeighbors:        5,
		RatingRadii:         []int{50, 100, 200, 300, 400, 500, 750, 1000},
		NeighborWeightShift: 10,
		BucketSize:          250,
		MinRating:           500,
		MaxRating:           3000,
		Temperature:         2.0,
		ComplexityInfluence: 0.3,
		RatingScale:         3000,
		BatchSize:           1024,
	}
}
