package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the HTTP request collectors of one app instance.
type Metrics struct {
	registry *prometheus.Registry
	prom     *fiberprometheus.FiberPrometheus
}

// NewMetrics creates request collectors on a private registry, so several
// apps can live in one process.
func NewMetrics(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	return &Metrics{
		registry: registry,
		prom:     fiberprometheus.NewWithRegistry(registry, serviceName, "http", "", nil),
	}
}

// Handler records request count, latency and in-flight requests.
func (m *Metrics) Handler() fiber.Handler {
	return m.prom.Middleware
}

// Endpoint exposes the private registry together with the process-wide collectors.
func (m *Metrics) Endpoint() fiber.Handler {
	gatherers := prometheus.Gatherers{m.registry, prometheus.DefaultGatherer}
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
}
