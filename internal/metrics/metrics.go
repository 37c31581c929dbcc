// Package metrics collects per-run generation metrics and pushes them to a
// Prometheus Pushgateway. A generator run is a batch job, so nothing is
// exposed for scraping.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Recorder struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	rows          *prometheus.CounterVec // txsynth_rows_total
	violations    *prometheus.CounterVec // txsynth_validation_violations_total
	stageDuration *prometheus.SummaryVec // txsynth_stage_duration_seconds
}

// NewRecorder registers the collectors on a private registry. gatewayURL may
// be empty, in which case Push is a no-op.
func NewRecorder(jobName, gatewayURL string) (*Recorder, error) {
	if jobName == "" {
		jobName = "txsynth"
	}

	reg := prometheus.NewRegistry()

	rows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsynth_rows_total",
			Help: "Rows generated, partitioned by dataset.",
		},
		[]string{"dataset"},
	)
	violations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsynth_validation_violations_total",
			Help: "Schema violations found, partitioned by dataset.",
		},
		[]string{"dataset"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "txsynth_stage_duration_seconds",
			Help:       "Duration of transaction pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage"},
	)

	for name, c := range map[string]prometheus.Collector{
		"rows counter":      rows,
		"violation counter": violations,
		"stage summary":     stageDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return &Recorder{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		rows:          rows,
		violations:    violations,
		stageDuration: stageDuration,
	}, nil
}

// ObserveStage satisfies pipeline.Observer.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) AddRows(dataset string, n int) {
	r.rows.WithLabelValues(dataset).Add(float64(n))
}

func (r *Recorder) AddViolations(dataset string, n int) {
	r.violations.WithLabelValues(dataset).Add(float64(n))
}

// Push sends the registry to the Pushgateway.
func (r *Recorder) Push() error {
	if r.gatewayURL == "" {
		return nil
	}
	if err := push.New(r.gatewayURL, r.jobName).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.gatewayURL, err)
	}
	return nil
}
