package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/pkg/models"
)

// ReadinessChecker reports whether the model artifacts are installed.
type ReadinessChecker interface {
	Ready() bool
}

// HealthService reports model readiness together with the state of the
// optional backends. Backend failures never make the service unhealthy:
// Postgres is only needed at startup and Redis degrades to a local cache.
type HealthService struct {
	readiness ReadinessChecker
	checks    map[string]func(context.Context) error
	timeout   time.Duration
	logger    *logrus.Logger

	healthCheckStatus *prometheus.GaugeVec
}

func NewHealthService(
	readiness ReadinessChecker,
	checks map[string]func(context.Context) error,
	reg prometheus.Registerer,
	logger *logrus.Logger,
) *HealthService {
	return &HealthService{
		readiness: readiness,
		checks:    checks,
		timeout:   2 * time.Second,
		logger:    logger,
		healthCheckStatus: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *models.HealthResponse {
	status := &models.HealthResponse{
		Status:     "active",
		ModelReady: s.readiness.Ready(),
	}

	if len(s.checks) == 0 {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status.Services = make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status.Services[name] = "unhealthy"
			s.logger.WithError(err).Warnf("Service %s is unhealthy", name)
			s.healthCheckStatus.WithLabelValues(name).Set(0)
			continue
		}
		status.Services[name] = "healthy"
		s.healthCheckStatus.WithLabelValues(name).Set(1)
	}

	return status
}
