// Package metrics holds the Prometheus collectors shared by the REST and MCP
// surfaces. Collectors live on the default registry, which is what the
// /metrics route exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Surface label values.
const (
	SurfaceREST = "rest"
	SurfaceMCP  = "mcp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// ParagraphsGenerated counts paragraphs handed back to callers.
	ParagraphsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lorem",
		Name:      "paragraphs_generated_total",
		Help:      "Paragraphs of placeholder text returned to callers.",
	}, []string{"surface"})

	// Requests counts generation requests per surface and outcome.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lorem",
		Name:      "generation_requests_total",
		Help:      "Generation requests by surface and outcome.",
	}, []string{"surface", "outcome"})
)

// ObserveGeneration records one request and, on success, its paragraph count.
func ObserveGeneration(surface string, paragraphs int, err error) {
	if err != nil {
		Requests.WithLabelValues(surface, OutcomeError).Inc()
		return
	}
	Requests.WithLabelValues(surface, OutcomeOK).Inc()
	ParagraphsGenerated.WithLabelValues(surface).Add(float64(paragraphs))
}
