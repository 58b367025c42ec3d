package middleware

import (
	"context"
	"strings"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests.
	Enabled bool
	// SkipPaths are paths that don't need profiling labels (e.g., health checks).
	SkipPaths []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/health/ready"},
	}
}

// ProfilingWithConfig runs the rest of the chain under Pyroscope labels
// (method, route pattern and, for document routes, the document kind) so CPU
// profiles can be split per endpoint.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), extractProfilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// extractProfilingLabels extracts profiling labels from the gin context.
func extractProfilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 3)
	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}
	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if kind, ok := documentKindFromRoute(route); ok {
		labels[telemetry.ProfilingLabelDocumentKind] = kind.String()
	}
	return labels
}

// documentKindFromRoute finds the payables/receivables segment of a route.
// Example: "/api/v1/finance/payables/:id" -> PAYABLE
func documentKindFromRoute(route string) (finance.DocumentKind, bool) {
	for _, part := range strings.Split(route, "/") {
		if part == "" || strings.HasPrefix(part, ":") {
			continue
		}
		if kind, err := finance.ParseDocumentKind(part); err == nil {
			return kind, true
		}
	}
	return "", false
}
