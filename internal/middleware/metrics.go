package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var httpMetrics *fiberprometheus.FiberPrometheus

// InitMetrics registers the HTTP request metrics and mounts the scrape
// endpoint on app at /metrics.
func InitMetrics(app *fiber.App, serviceName string) {
	if httpMetrics == nil {
		httpMetrics = fiberprometheus.New(serviceName)
	}
	httpMetrics.RegisterAt(app, "/metrics")
}

// MetricsMiddleware records request count and latency per route.
func MetricsMiddleware() fiber.Handler {
	if httpMetrics == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return httpMetrics.Middleware
}
