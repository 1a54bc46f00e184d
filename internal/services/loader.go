package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/catalog"
	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/database"
	"github.com/temcen/chessrecs/internal/ml"
)

// Installer receives fully loaded resources.
type Installer interface {
	Install(res Resources)
}

// ResourceLoader reads the game catalog and model artifacts and hands them
// to the orchestrator. Nothing is installed unless every input loads.
type ResourceLoader struct {
	cfg       *config.Config
	db        *database.Database
	board     BoardConverter
	installer Installer
	logger    *logrus.Logger
}

func NewResourceLoader(
	cfg *config.Config,
	db *database.Database,
	board BoardConverter,
	installer Installer,
	logger *logrus.Logger,
) *ResourceLoader {
	return &ResourceLoader{
		cfg:       cfg,
		db:        db,
		board:     board,
		installer: installer,
		logger:    logger,
	}
}

func (l *ResourceLoader) gameSource() (catalog.GameSource, error) {
	switch l.cfg.Artifacts.CatalogSource {
	case "", "csv":
		return catalog.NewCSVSource(l.cfg.Artifacts.GamesPath, l.logger), nil
	case "postgres":
		if l.db == nil || l.db.PG == nil {
			if l.db != nil && l.db.PostgresErr() != nil {
				return nil, fmt.Errorf("catalog source postgres: %w", l.db.PostgresErr())
			}
			return nil, fmt.Errorf("catalog source postgres requires a database connection")
		}
		return catalog.NewPostgresSource(l.db.PG, l.logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", l.cfg.Artifacts.CatalogSource)
	}
}

// Load blocks until resources are installed or loading fails.
func (l *ResourceLoader) Load(ctx context.Context) error {
	startTime := time.Now()

	src, err := l.gameSource()
	if err != nil {
		return err
	}

	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	l.logger.WithField("catalog", cat.String()).Info("Game catalog loaded")

	artifacts, err := ml.LoadArtifacts(ml.ArtifactPaths{
		Similarity:    l.cfg.Artifacts.SimilarityPath,
		Collaborative: l.cfg.Artifacts.CollaborativePath,
		Model:         l.cfg.Artifacts.ModelPath,
	}, l.logger)
	if err != nil {
		return fmt.Errorf("failed to load artifacts: %w", err)
	}

	version := CacheVersion(artifacts.Fingerprint, l.cfg.Recommendation.Collaborative)

	var cache PredictionCache = NewMemoryPredictionCache()
	if l.db != nil && l.db.Redis != nil {
		shared := NewRedisPredictionCache(l.db.Redis, l.cfg.Redis.KeyPrefix, version, l.logger)
		cache = NewTieredPredictionCache(cache, shared)
	}

	l.installer.Install(Resources{
		Catalog:       cat,
		Similarity:    artifacts.Similarity,
		Collaborative: artifacts.Collaborative,
		Model:         artifacts.Model,
		Board:         l.board,
		Cache:         cache,
	})

	l.logger.WithFields(logrus.Fields{
		"fingerprint": artifacts.Fingerprint,
		"version":     version,
		"duration":    time.Since(startTime),
	}).Info("Resources loaded")
	return nil
}
