// Package metrics records ambient stage-level counters and histograms for
// a bootstrap run, dumped to a text file in the workspace at the end of
// the run rather than served live, since a bootstrap host has no
// long-lived process to scrape.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder owns a private registry so concurrent test runs, and multiple
// bootstrap runs within one process, never collide on prometheus's default
// global registry.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageOutcome  *prometheus.CounterVec
	renderTotal   prometheus.Counter
	barrierWait   *prometheus.HistogramVec
}

// NewRecorder returns a Recorder with all series registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ztc_stage_duration_seconds",
			Help:    "Duration of a bootstrap stage run, labeled by stage and adapter.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "adapter"}),
		stageOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ztc_stage_outcome_total",
			Help: "Count of stage terminal outcomes, labeled by stage and outcome.",
		}, []string{"stage", "outcome"}),
		renderTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ztc_render_total",
			Help: "Count of adapter render invocations.",
		}),
		barrierWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ztc_barrier_wait_seconds",
			Help:    "Time spent waiting for a stage's barrier precondition.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "barrier"}),
	}

	reg.MustRegister(r.stageDuration, r.stageOutcome, r.renderTotal, r.barrierWait)
	return r
}

// ObserveStage records a completed stage's duration and terminal outcome.
func (r *Recorder) ObserveStage(stage, adapterName, outcome string, seconds float64) {
	r.stageDuration.WithLabelValues(stage, adapterName).Observe(seconds)
	r.stageOutcome.WithLabelValues(stage, outcome).Inc()
}

// ObserveRender increments the render counter by one.
func (r *Recorder) ObserveRender() {
	r.renderTotal.Inc()
}

// ObserveBarrierWait records how long a stage waited on its barrier.
func (r *Recorder) ObserveBarrierWait(stage, barrier string, seconds float64) {
	r.barrierWait.WithLabelValues(stage, barrier).Observe(seconds)
}

// WriteTextfile dumps the current registry in the Prometheus text exposition
// format to path, for node_exporter-style textfile collection or simple
// post-run inspection; ztc has no long-lived process to scrape directly.
func (r *Recorder) WriteTextfile(path string) error {
	mfs, err := r.registry.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return err
		}
	}
	return nil
}
