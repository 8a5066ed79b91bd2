package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/erp/aftersales/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// healthCheckTimeout bounds each component check
const healthCheckTimeout = 2 * time.Second

// Component states reported by the health endpoint
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// HealthCheck reports the state of one collaborator
type HealthCheck func(ctx context.Context) string

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheck),
	}
}

// AddCheck registers a component check under name
func (h *SystemHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// PingCheck adapts a ping function into a HealthCheck
func PingCheck(ping func(ctx context.Context) error) HealthCheck {
	return func(ctx context.Context) string {
		if err := ping(ctx); err != nil {
			return StatusDown
		}
		return StatusUp
	}
}

// RegisterRoutes mounts the system endpoints on rg
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ping", h.Ping)
}

// Health reports the service state. Any component that is down turns the
// response into a 503.
func (h *SystemHandler) Health(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := StatusUp
	components := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		state := h.checks[name](ctx)
		cancel()
		components[name] = state
		if state == StatusDown {
			status = StatusDown
		}
	}

	resp := dto.HealthResponse{
		Status:     status,
		Version:    h.version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
	code := http.StatusOK
	if status == StatusDown {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, dto.Response{Success: status == StatusUp, Data: resp})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a liveness probe that touches no collaborator
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
