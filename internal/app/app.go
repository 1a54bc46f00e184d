package app

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/database"
	"github.com/temcen/chessrecs/internal/handlers"
	"github.com/temcen/chessrecs/internal/middleware"
	"github.com/temcen/chessrecs/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	registry *prometheus.Registry
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	loadCancel context.CancelFunc
	loadDone   sync.WaitGroup
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Optional backends
	app.db = database.New(cfg, app.logger)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.services = services.New(cfg, app.logger, app.db, app.registry)
	app.handlers = handlers.New(cfg, app.logger, app.services)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// StartLoading loads the catalog and model artifacts in the background. The
// server answers health checks meanwhile and refuses predictions with 503.
func (a *App) StartLoading() {
	ctx, cancel := context.WithCancel(context.Background())
	a.loadCancel = cancel

	a.loadDone.Add(1)
	go func() {
		defer a.loadDone.Done()
		if err := a.services.Loader.Load(ctx); err != nil {
			a.logger.WithError(err).Error("Models failed to load, predictions will be refused")
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.loadCancel != nil {
		a.loadCancel()
		a.loadDone.Wait()
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health check endpoints
	router.GET("/", a.handlers.Health.Check)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/health/ready", a.handlers.Health.Ready)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	router.GET("/openings", a.handlers.Openings.List)
	router.POST("/predict", a.handlers.Recommendation.Predict)

	api := router.Group("/api/v1")
	{
		api.GET("/openings", a.handlers.Openings.List)
		api.POST("/recommendations", a.handlers.Recommendation.Predict)
	}

	a.router = router
}
