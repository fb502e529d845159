package middleware

import (
	"sync"

	"mutualaid/internal/authz"
	"mutualaid/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Fiber Prometheus middleware.
// fiberprometheus registers its collectors globally, so it is built once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records HTTP metrics, skipping the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	handler := p.Middleware
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return handler(c)
	}
}

// RecordAuthzDecision is an authz.Observer that counts decisions.
func RecordAuthzDecision(kind authz.Kind, action authz.Action, d authz.Decision) {
	observability.AuthzDecisions.WithLabelValues(string(kind), string(action), d.Outcome()).Inc()
}
