// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"
	"net/http"

	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/events"
	"github.com/vglena/valorapro/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	GetEnv() string
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration.
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (e.g. Redis ping). Optional.
	Health HealthChecker
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics http.Handler
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
