// Package http holds the composition types shared by the API process and its
// router.
package http

import (
	"context"

	"dealflow_backend/platform/config"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.PublicIngestConfig
}

// HealthChecker is satisfied by *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the router needs, assembled in cmd/api.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Metrics *metrics.Manager
	Modules []Module
}

// Drain releases long-lived connections held by any module.
func (a *App) Drain() {
	for _, m := range a.Modules {
		if d, ok := m.(Drainer); ok {
			a.Logger.Info("draining module", "module", m.Name())
			d.Drain()
		}
	}
}
