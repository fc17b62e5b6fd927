package generation

import "github.com/prometheus/client_golang/prometheus"

var (
	// genRequests counts generation calls by kind (idea|flashcard) and
	// outcome (ok|upstream|malformed|timeout).
	genRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Total number of text-generation calls by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// genLatency records provider time per call, retries included.
	genLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Duration of text-generation calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(genRequests, genLatency)
}
