// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"address_search_backend/internal/events"
	"address_search_backend/platform/config"
	"address_search_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.RateLimitConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and rate limit settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (e.g. Redis ping). Optional.
	Health HealthChecker
	// EventBus is the domain event bus shared by the modules.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
