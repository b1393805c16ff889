// Package metrics instruments report runs with Prometheus collectors.
//
// A report is a batch job, so the usual way to export these metrics is
// WriteTextfile, which writes the node-exporter textfile format once the
// run is over.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/report"
)

// Result label values for MaterializationsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder bundles report metrics on its own registry.
// It implements report.Observer and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	MaterializationsTotal *prometheus.CounterVec
	MaterializeDuration   prometheus.Histogram
	EventsFoldedTotal     prometheus.Counter
	ReportMonthsTotal     prometheus.Counter
	ActualPremium         *prometheus.GaugeVec
	ExpectedPremium       *prometheus.GaugeVec
}

var _ report.Observer = (*Recorder)(nil)

// New constructs a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		MaterializationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gwp_materializations_total",
				Help: "Total snapshot materializations by result",
			},
			[]string{"result"},
		),
		MaterializeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gwp_materialize_duration_seconds",
			Help:    "Snapshot materialization duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EventsFoldedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwp_events_folded_total",
			Help: "Total events folded across all materializations",
		}),
		ReportMonthsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwp_report_months_total",
			Help: "Total report rows produced",
		}),
		ActualPremium: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gwp_report_actual_premium",
			Help: "Cumulative actual gross written premium (AGWP) per report month",
		}, []string{"month"}),
		ExpectedPremium: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gwp_report_expected_premium",
			Help: "Expected gross written premium (EGWP) per report month",
		}, []string{"month"}),
	}
	r.registry.MustRegister(
		r.MaterializationsTotal,
		r.MaterializeDuration,
		r.EventsFoldedTotal,
		r.ReportMonthsTotal,
		r.ActualPremium,
		r.ExpectedPremium,
	)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// MaterializationDone records one materialization.
func (r *Recorder) MaterializationDone(_ calendar.Month, folded int, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.MaterializationsTotal.WithLabelValues(result).Inc()
	r.MaterializeDuration.Observe(elapsed.Seconds())
	r.EventsFoldedTotal.Add(float64(folded))
}

// MonthReported records one report row.
func (r *Recorder) MonthReported(row report.Row) {
	month := row.Month.String()
	r.ReportMonthsTotal.Inc()
	r.ActualPremium.WithLabelValues(month).Set(float64(row.ActualPremium))
	r.ExpectedPremium.WithLabelValues(month).Set(float64(row.ExpectedPremium))
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text format. The file is written atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
