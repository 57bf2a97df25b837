// Package metrics exposes Prometheus counters for the persistence and authentication paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "names_to_faces"

// Persistence operation labels.
const (
	OpSave        = "save"
	OpLoad        = "load"
	OpWriteImage  = "write_image"
	OpReadImage   = "read_image"
	OpDeleteImage = "delete_image"
	OpSetSecret   = "set_secret"
)

var (
	// PersistenceErrors counts swallowed persistence failures by operation.
	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_errors_total",
		Help:      "Persistence failures that were logged and ignored.",
	}, []string{"op"})

	// AuthOutcomes counts finished Auth Gate runs by terminal state.
	AuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Finished authentication runs by terminal state.",
	}, []string{"state"})

	// People is the number of people in the loaded store.
	People = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "people",
		Help:      "Number of people in the record store.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
