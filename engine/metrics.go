package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_inference_duration_seconds",
			Help:    "Time spent inside the model forward pass",
			Buckets: prometheus.DefBuckets,
		},
	)
	lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_inference_lock_wait_seconds",
			Help:    "Time requests spend queued on the inference lock",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)
	inferenceErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_inference_errors_total",
			Help: "Total number of failed forward passes",
		},
	)
)

func init() {
	prometheus.MustRegister(inferenceDuration, lockWait, inferenceErrors)
}
