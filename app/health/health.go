// Package health provides health check endpoints for the settlement node.
//
// The health check system supports multiple endpoints:
// - /health - Basic liveness check
// - /health/ready - Readiness check for load balancers
// - /health/detailed - Comprehensive status including detailed-only checks
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// CheckFunc inspects one component.
type CheckFunc func(ctx context.Context) ComponentHealth

// Check is a named CheckFunc. Detailed checks only run for /health/detailed.
type Check struct {
	Name     string
	Fn       CheckFunc
	Detailed bool
}

// Config holds configuration for the health checker
type Config struct {
	// Version is reported in every response
	Version string

	// MaxResponseTime bounds each check
	MaxResponseTime time.Duration

	// CacheDuration is how long to cache readiness results
	CacheDuration time.Duration
}

// DefaultConfig returns the default health check configuration
func DefaultConfig() Config {
	return Config{
		MaxResponseTime: 5 * time.Second,
		CacheDuration:   5 * time.Second,
	}
}

// Checker performs health checks on registered components
type Checker struct {
	logger log.Logger
	config Config
	checks []Check

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedHealth *HealthCheck
}

// NewChecker creates a new health checker
func NewChecker(logger log.Logger, cfg Config, checks ...Check) *Checker {
	return &Checker{
		logger: logger,
		config: cfg,
		checks: checks,
	}
}

// Check runs the registered checks in parallel
func (c *Checker) Check(ctx context.Context, detailed bool) *HealthCheck {
	if !detailed {
		if cached := c.cached(); cached != nil {
			return cached
		}
	}

	health := &HealthCheck{
		Timestamp:  time.Now(),
		Version:    c.config.Version,
		Components: make(map[string]ComponentHealth),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, check := range c.checks {
		if check.Detailed && !detailed {
			continue
		}
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()
			result := c.run(ctx, check)
			mu.Lock()
			health.Components[check.Name] = result
			mu.Unlock()
		}(check)
	}
	wg.Wait()

	health.Status = calculateOverallStatus(health.Components)

	if !detailed {
		c.mu.Lock()
		c.lastCheck = time.Now()
		c.cachedHealth = health
		c.mu.Unlock()
	}
	return health
}

// run bounds a check by MaxResponseTime and reports a timeout as unhealthy
func (c *Checker) run(ctx context.Context, check Check) ComponentHealth {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.config.MaxResponseTime)
	defer cancel()

	done := make(chan ComponentHealth, 1)
	go func() { done <- check.Fn(timeoutCtx) }()

	select {
	case result := <-done:
		if result.Timestamp.IsZero() {
			result.Timestamp = time.Now()
		}
		return result
	case <-timeoutCtx.Done():
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Timestamp: time.Now(),
		}
	}
}

func (c *Checker) cached() *HealthCheck {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cachedHealth == nil || time.Since(c.lastCheck) >= c.config.CacheDuration {
		return nil
	}
	return c.cachedHealth
}

// calculateOverallStatus determines the overall health status based on component statuses
func calculateOverallStatus(components map[string]ComponentHealth) Status {
	hasUnhealthy := false
	hasDegraded := false
	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded, StatusUnknown:
			hasDegraded = true
		}
	}
	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// RegisterRoutes registers health check endpoints on router
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", c.handleHealthReady).Methods(http.MethodGet)
	router.HandleFunc("/health/detailed", c.handleHealthDetailed).Methods(http.MethodGet)
}

// Router returns a mux router serving only the health endpoints
func (c *Checker) Router() *mux.Router {
	router := mux.NewRouter()
	c.RegisterRoutes(router)
	return router
}

func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (c *Checker) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), false)
	c.writeJSON(w, statusCode(health), health)
}

func (c *Checker) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), true)
	c.writeJSON(w, statusCode(health), health)
}

// statusCode maps health to HTTP; degraded nodes still serve traffic
func statusCode(health *HealthCheck) int {
	if health.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (c *Checker) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to write health response", "error", err)
	}
}
